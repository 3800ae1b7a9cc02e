package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or JETGRAB_* environment
// variables; environment wins.
type Config struct {
	APIBase          string        `mapstructure:"api_base"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	DataPath         string        `mapstructure:"data_path"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFormat        string        `mapstructure:"log_format"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	ImportMaxBytes   int64         `mapstructure:"import_max_bytes"`
	TelegramBotToken string        `mapstructure:"telegram_bot_token"`
	BrowserTimeout   time.Duration `mapstructure:"browser_timeout"`
	DownloadDir      string        `mapstructure:"download_dir"`
}

// ErrNoBotToken is returned by RequireBotToken when the token is unset.
var ErrNoBotToken = errors.New("telegram_bot_token is not set")

const envPrefix = "JETGRAB"

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base", "http://127.0.0.1:5000/api")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("data_path", "./jetgrab_data")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("history_limit", 80)
	v.SetDefault("import_max_bytes", 5<<20)
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("browser_timeout", 30*time.Second)
	v.SetDefault("download_dir", ".")
}

// LoadConfig reads config.yaml from path (if present) and the
// environment, then validates the result.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that have no safe fallback.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return errors.New("api_base is not set")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base %q is not an http(s) url", c.APIBase)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.BrowserTimeout <= 0 {
		return fmt.Errorf("browser_timeout must be positive, got %s", c.BrowserTimeout)
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > 1000 {
		return fmt.Errorf("history_limit must be in (0, 1000], got %d", c.HistoryLimit)
	}
	if c.ImportMaxBytes <= 0 {
		return fmt.Errorf("import_max_bytes must be positive, got %d", c.ImportMaxBytes)
	}
	if c.DataPath == "" {
		return errors.New("data_path is not set")
	}
	return nil
}

// RequireBotToken fails when the Telegram front-end cannot start.
func (c Config) RequireBotToken() error {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return ErrNoBotToken
	}
	return nil
}
