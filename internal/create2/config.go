package create2

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Bidon15/summonpredict/internal/ethereum"
)

// RawConfig is the textual form of a DeploymentConfig as it appears in YAML
// files, JSON request bodies and command line flags.
type RawConfig struct {
	SummonerAddress      string   `json:"summoner_address" yaml:"summoner_address"`
	MolochImplementation string   `json:"moloch_implementation" yaml:"moloch_implementation"`
	SharesImplementation string   `json:"shares_implementation" yaml:"shares_implementation"`
	BadgesImplementation string   `json:"badges_implementation" yaml:"badges_implementation"`
	LootImplementation   string   `json:"loot_implementation" yaml:"loot_implementation"`
	InitHolders          []string `json:"init_holders" yaml:"init_holders"`
	InitShares           []string `json:"init_shares" yaml:"init_shares"`
	CustomSalt           string   `json:"custom_salt,omitempty" yaml:"custom_salt,omitempty"`
}

// ParseConfig validates and decodes a RawConfig. Empty implementation
// addresses decode to the zero address so that callers can fill them from a
// registry afterwards; an empty custom salt selects the zero default.
func ParseConfig(raw RawConfig) (DeploymentConfig, error) {
	var cfg DeploymentConfig
	var err error

	if cfg.Factory, err = decodeAddress("summoner_address", raw.SummonerAddress, false); err != nil {
		return cfg, err
	}
	if cfg.PrimaryImpl, err = decodeAddress("moloch_implementation", raw.MolochImplementation, true); err != nil {
		return cfg, err
	}
	impls := [NumDependents]string{raw.SharesImplementation, raw.BadgesImplementation, raw.LootImplementation}
	for i, s := range impls {
		field := DependentNames[i] + "_implementation"
		if cfg.DependentImpls[i], err = decodeAddress(field, s, true); err != nil {
			return cfg, err
		}
	}

	if len(raw.InitHolders) != len(raw.InitShares) {
		return cfg, invalid("init_shares", fmt.Sprintf("%d holders but %d share amounts", len(raw.InitHolders), len(raw.InitShares)))
	}
	cfg.Holders = make([]common.Address, len(raw.InitHolders))
	cfg.Shares = make([]*uint256.Int, len(raw.InitShares))
	for i := range raw.InitHolders {
		if cfg.Holders[i], err = decodeAddress(fmt.Sprintf("init_holders[%d]", i), raw.InitHolders[i], false); err != nil {
			return cfg, err
		}
		amount, err := ethereum.DecodeUint256(raw.InitShares[i])
		if err != nil {
			return cfg, invalidf(fmt.Sprintf("init_shares[%d]", i), err)
		}
		cfg.Shares[i] = amount
	}

	if raw.CustomSalt != "" {
		salt, err := ethereum.DecodeHash(raw.CustomSalt)
		if err != nil {
			return cfg, invalidf("custom_salt", err)
		}
		cfg.CustomSalt = salt
	}

	return cfg, nil
}

func decodeAddress(field, s string, optional bool) (common.Address, error) {
	if s == "" {
		if optional {
			return common.Address{}, nil
		}
		return common.Address{}, invalid(field, "required")
	}
	addr, err := ethereum.DecodeAddress(s)
	if err != nil {
		return common.Address{}, invalidf(field, err)
	}
	return addr, nil
}

// Raw renders cfg back to its textual form.
func (cfg DeploymentConfig) Raw() RawConfig {
	raw := RawConfig{
		SummonerAddress:      ethereum.EncodeAddress(cfg.Factory),
		MolochImplementation: ethereum.EncodeAddress(cfg.PrimaryImpl),
		SharesImplementation: ethereum.EncodeAddress(cfg.DependentImpls[SharesIndex]),
		BadgesImplementation: ethereum.EncodeAddress(cfg.DependentImpls[BadgesIndex]),
		LootImplementation:   ethereum.EncodeAddress(cfg.DependentImpls[LootIndex]),
		InitHolders:          make([]string, len(cfg.Holders)),
		InitShares:           make([]string, len(cfg.Shares)),
		CustomSalt:           ethereum.EncodeHash(cfg.CustomSalt),
	}
	for i, h := range cfg.Holders {
		raw.InitHolders[i] = ethereum.EncodeAddress(h)
	}
	for i, s := range cfg.Shares {
		if s != nil {
			raw.InitShares[i] = s.ToBig().String()
		}
	}
	return raw
}

// MissingImplementations reports whether any implementation address is
// still zero and has to be looked up.
func (cfg DeploymentConfig) MissingImplementations() bool {
	if cfg.PrimaryImpl == (common.Address{}) {
		return true
	}
	for _, impl := range cfg.DependentImpls {
		if impl == (common.Address{}) {
			return true
		}
	}
	return false
}
