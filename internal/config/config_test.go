package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5000/api", cfg.APIBase)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "./jetgrab_data", cfg.DataPath)
	assert.Equal(t, 80, cfg.HistoryLimit)
	assert.Equal(t, int64(5<<20), cfg.ImportMaxBytes)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.ErrorIs(t, cfg.RequireBotToken(), ErrNoBotToken)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "api_base: https://backend.example/api\nhistory_limit: 10\nrequest_timeout: 5s\ntelegram_bot_token: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("JETGRAB_HISTORY_LIMIT", "20")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://backend.example/api", cfg.APIBase)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.NoError(t, cfg.RequireBotToken())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad api base", map[string]string{"JETGRAB_API_BASE": "not a url"}},
		{"history limit too large", map[string]string{"JETGRAB_HISTORY_LIMIT": "1001"}},
		{"zero timeout", map[string]string{"JETGRAB_REQUEST_TIMEOUT": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_base: [unclosed"), 0o600))
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
