package create2

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleRaw() RawConfig {
	return RawConfig{
		SummonerAddress:      "0x0000000000000000000000000000000000000001",
		MolochImplementation: "0x0000000000000000000000000000000000000002",
		SharesImplementation: "0x0000000000000000000000000000000000000003",
		BadgesImplementation: "0x0000000000000000000000000000000000000004",
		LootImplementation:   "0x0000000000000000000000000000000000000005",
		InitHolders: []string{
			"0x1234567890123456789012345678901234567890",
			"2234567890123456789012345678901234567890",
		},
		InitShares: []string{"1000000000000000000", "0x1bc16d674ec80000"},
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(exampleRaw())
	require.NoError(t, err)
	assert.Equal(t, exampleConfig(), cfg)
	assert.False(t, cfg.MissingImplementations())

	got, err := PredictAll(cfg)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x23c30b970e3608e37fd5d760a3750cc60e4fac38"), got.Primary)
}

func TestParseConfig_OptionalImplementations(t *testing.T) {
	raw := exampleRaw()
	raw.MolochImplementation = ""
	raw.LootImplementation = ""

	cfg, err := ParseConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, cfg.PrimaryImpl)
	assert.Equal(t, common.Address{}, cfg.DependentImpls[LootIndex])
	assert.True(t, cfg.MissingImplementations())
}

func TestParseConfig_CustomSalt(t *testing.T) {
	raw := exampleRaw()
	raw.CustomSalt = "0x0000000000000000000000000000000000000000000000000000000000000000"
	cfg, err := ParseConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, cfg.CustomSalt)

	raw.CustomSalt = "0x00000000000000000000000000000000000000000000000000000000000000aa"
	cfg, err = ParseConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(0xaa), cfg.CustomSalt[31])
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawConfig)
		field  string
	}{
		{
			name:   "missing summoner",
			mutate: func(r *RawConfig) { r.SummonerAddress = "" },
			field:  "summoner_address",
		},
		{
			name:   "short summoner",
			mutate: func(r *RawConfig) { r.SummonerAddress = "0x1234" },
			field:  "summoner_address",
		},
		{
			name:   "bad hex implementation",
			mutate: func(r *RawConfig) { r.BadgesImplementation = "0xzz00000000000000000000000000000000000004" },
			field:  "badges_implementation",
		},
		{
			name:   "holders and shares mismatch",
			mutate: func(r *RawConfig) { r.InitShares = r.InitShares[:1] },
			field:  "init_shares",
		},
		{
			name:   "bad holder",
			mutate: func(r *RawConfig) { r.InitHolders[1] = "0x22" },
			field:  "init_holders[1]",
		},
		{
			name:   "negative share amount",
			mutate: func(r *RawConfig) { r.InitShares[0] = "-1" },
			field:  "init_shares[0]",
		},
		{
			name:   "overflowing share amount",
			mutate: func(r *RawConfig) { r.InitShares[0] = "0x1" + "0000000000000000000000000000000000000000000000000000000000000000" },
			field:  "init_shares[0]",
		},
		{
			name:   "short custom salt",
			mutate: func(r *RawConfig) { r.CustomSalt = "0x01" },
			field:  "custom_salt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := exampleRaw()
			tt.mutate(&raw)

			_, err := ParseConfig(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDeploymentConfig_Raw(t *testing.T) {
	raw := exampleConfig().Raw()
	assert.Equal(t, "0x0000000000000000000000000000000000000001", raw.SummonerAddress)
	assert.Equal(t, []string{"1000000000000000000", "2000000000000000000"}, raw.InitShares)

	back, err := ParseConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, exampleConfig(), back)
}
