package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteConfigFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rocade")

	cfg := DefaultConfig()
	cfg.Steam.APIKey = "key"
	cfg.Steam.ProfileID = "76561198000000000"
	cfg.Twitch.ClientID = "cid"
	cfg.Twitch.ClientSecret = "secret"

	require.NoError(t, writeConfigFile(cfg, dir))

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, v.ReadInConfig())

	assert.Equal(t, "key", v.GetString("steam.api_key"))
	assert.Equal(t, "76561198000000000", v.GetString("steam.profile_id"))
	assert.Equal(t, "cid", v.GetString("twitch.client_id"))
	assert.Equal(t, "secret", v.GetString("twitch.client_secret"))
	assert.Equal(t, cfg.Data.Dir, v.GetString("data.dir"))
	assert.Equal(t, "INFO", v.GetString("logging.level"))
}

func TestIsConfigured(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.IsConfigured())

	cfg.Steam.APIKey = "key"
	cfg.Steam.ProfileID = "76561198000000000"
	cfg.Twitch.ClientID = "cid"
	assert.False(t, cfg.IsConfigured())

	cfg.Twitch.ClientSecret = "secret"
	assert.True(t, cfg.IsConfigured())
}

func TestDataPaths(t *testing.T) {
	cfg := &Config{Data: DataConfig{Dir: "/data/rocade"}}
	assert.Equal(t, filepath.Join("/data/rocade", "rocade.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/data/rocade", "assets"), cfg.AssetsDir())
}

func TestSetupLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "rocade.log")

	logger, err := SetupLogger(&LoggingConfig{File: logPath, Level: "DEBUG"})
	require.NoError(t, err)

	logger.Debug("hello")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path, err := expandHome("~/logs/rocade.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "rocade.log"), path)

	path, err = expandHome("/var/log/rocade.log")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/rocade.log", path)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}
