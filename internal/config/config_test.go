package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveToken(t *testing.T) {
	t.Setenv("ZL_TEST_TOKEN", "from-env")

	require.Equal(t, "inline", ZenMoneyConfig{Token: "inline", TokenEnv: "ZL_TEST_TOKEN"}.ResolveToken())
	require.Equal(t, "from-env", ZenMoneyConfig{TokenEnv: "ZL_TEST_TOKEN"}.ResolveToken())
	require.Empty(t, ZenMoneyConfig{}.ResolveToken())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ZENLEDGER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "ZENMONEY_TOKEN", cfg.ZenMoney.TokenEnv)
	require.Equal(t, 60, cfg.ZenMoney.TimeoutSeconds)
	require.Equal(t, 2.0, cfg.Analytics.ZScoreThreshold)
	require.Equal(t, 10, cfg.Analytics.DefaultLimit)
	require.Equal(t, 50, cfg.Analytics.SearchLimit)
	require.Equal(t, 300, cfg.Analytics.StalenessFreshSeconds)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
path = "/tmp/custom.db"

[zenmoney]
timeout_seconds = 5

[analytics]
default_limit = 25
`), 0o644))
	t.Setenv("ZENLEDGER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.db", cfg.Database.Path)
	require.Equal(t, 5, cfg.ZenMoney.TimeoutSeconds)
	require.Equal(t, 25, cfg.Analytics.DefaultLimit)
	// untouched keys keep their defaults
	require.Equal(t, 2.0, cfg.Analytics.ZScoreThreshold)
}
