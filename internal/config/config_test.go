package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"api":{"base_url":"http://upstream/api/"}}`))
	require.NoError(t, err)
	require.Equal(t, "http://upstream/api", cfg.API.BaseURL)
	require.Equal(t, 120*time.Second, cfg.API.Timeout())
	require.Equal(t, int64(20*1024*1024), cfg.API.MaxUploadBytes())
	require.Equal(t, "/documents/analyze/stream", cfg.API.AnalyzePath)
	require.Equal(t, 1<<15, cfg.Vault.ScryptN)
	require.Equal(t, 2*time.Second, cfg.Vault.SuccessDisplay())
	require.Equal(t, 4*time.Second, cfg.Vault.ErrorDisplay())
	require.Equal(t, "local", cfg.Export.Store.Type)
	require.Equal(t, 24*time.Hour, cfg.Export.MaxAge())
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `{}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"api":{"base_url":"http://x"},"vault":{"scrypt_n":1000}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"api":{"base_url":"http://x"},"export":{"store":{"type":"ftp"}}}`))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
