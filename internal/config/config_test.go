package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  provider: sqlite
  uri: /tmp/tafsiri.db
server:
  port: "9000"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, "/tmp/tafsiri.db", cfg.Store.URI)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "configs", cfg.Store.Collection)
	assert.Equal(t, 5, cfg.ConnectionTest.Burst)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"provider":  "store:\n  provider: redis\n",
		"uri":       "store:\n  uri: \"\"\n",
		"burst":     "connection_test:\n  rate_limit: 2\n  burst: 0\n",
		"negative":  "connection_test:\n  rate_limit: -1\n",
		"malformed": "store: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Store.AllowNoopUpdates = true
	cfg.Server.CORSOrigin = "https://app.example.com"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.True(t, Exists(path))
}

func TestResolvePath(t *testing.T) {
	t.Setenv("TAFSIRI_CONFIG_PATH", "/etc/tafsiri.yaml")
	assert.Equal(t, "/flag.yaml", ResolvePath("/flag.yaml"))
	assert.Equal(t, "/etc/tafsiri.yaml", ResolvePath(""))

	t.Setenv("TAFSIRI_CONFIG_PATH", "")
	assert.Equal(t, GetConfigPath(), ResolvePath(""))
}
