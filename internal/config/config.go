package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Steam   SteamConfig   `mapstructure:"steam"`
	Twitch  TwitchConfig  `mapstructure:"twitch"`
	Data    DataConfig    `mapstructure:"data"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SteamConfig holds Steam Web API and local client configuration
type SteamConfig struct {
	APIKey    string `mapstructure:"api_key"`    // Steam Web API key
	ProfileID string `mapstructure:"profile_id"` // SteamID64 of the user profile
	AppsDir   string `mapstructure:"apps_dir"`   // steamapps directory of the local library
}

// TwitchConfig holds the OAuth client credentials for the IGDB API
type TwitchConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// DataConfig holds local storage locations
type DataConfig struct {
	Dir string `mapstructure:"dir"` // App data dir; holds the database and the asset cache
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			AppsDir: defaultSteamAppsPath(),
		},
		Data: DataConfig{
			Dir: defaultDataPath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// DatabasePath returns the SQLite database file location
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.Dir, "rocade.db")
}

// AssetsDir returns the root of the local image cache
func (c *Config) AssetsDir() string {
	return filepath.Join(c.Data.Dir, "assets")
}

// IsConfigured returns true if the Steam and Twitch credentials are set
func (c *Config) IsConfigured() bool {
	return c.Steam.APIKey != "" && c.Steam.ProfileID != "" &&
		c.Twitch.ClientID != "" && c.Twitch.ClientSecret != ""
}

// defaultSteamAppsPath returns the usual steamapps location for the current OS
func defaultSteamAppsPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return filepath.Join("C:\\", "Program Files (x86)", "Steam", "steamapps")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Steam", "steamapps")
	default:
		return filepath.Join(home, ".steam", "steam", "steamapps")
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "rocade")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "rocade")
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	return filepath.Join(defaultDataPath(), "rocade.log")
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "rocade")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "rocade")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("ROCADE")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to the default config file
func SaveConfig(cfg *Config) error {
	return writeConfigFile(cfg, defaultConfigPath())
}

// writeConfigFile writes cfg as config.yaml under dir, creating dir if
// needed. Keys are set individually to keep the snake_case names stable.
func writeConfigFile(cfg *Config, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("steam.api_key", cfg.Steam.APIKey)
	v.Set("steam.profile_id", cfg.Steam.ProfileID)
	v.Set("steam.apps_dir", cfg.Steam.AppsDir)

	v.Set("twitch.client_id", cfg.Twitch.ClientID)
	v.Set("twitch.client_secret", cfg.Twitch.ClientSecret)

	v.Set("data.dir", cfg.Data.Dir)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(filepath.Join(dir, "config.yaml")); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
