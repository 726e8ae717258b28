package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(1), cfg.Chain.ChainID)
	assert.Equal(t, 15*time.Second, cfg.Chain.CallTimeout)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SUMMON_SERVER_PORT", "9090")
	t.Setenv("SUMMON_CHAIN_RPC_URL", "http://localhost:8545")
	t.Setenv("SUMMON_CHAIN_SUMMONER_ADDRESS", "0x0000000000000000000000000000000000000001")
	t.Setenv("SUMMON_REDIS_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCURL)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", cfg.Chain.SummonerAddress)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
server:
  port: 7000
chain:
  chain_id: 11155111
  start_block: 4200000
database:
  enabled: true
  database: summon_test
rate_limit:
  enabled: true
  requests: 10
  window: 10s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, int64(11155111), cfg.Chain.ChainID)
	assert.Equal(t, uint64(4200000), cfg.Chain.StartBlock)
	assert.True(t, cfg.Database.Enabled)
	assert.Contains(t, cfg.Database.DSN(), "dbname=summon_test")
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, int64(10), cfg.RateLimit.Requests)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
}

func TestRead_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: text\n"), 0o600))

	v := New()
	v.SetConfigFile(path)
	cfg, err := Read(v)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestRead_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	v := New()
	v.SetConfigFile(path)
	_, err := Read(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Log:    LogConfig{Format: "json"},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RateLimit = RateLimitConfig{Enabled: true}
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
