package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sheets    SheetsConfig    `yaml:"sheets" mapstructure:"sheets"`
	Gmail     GmailConfig     `yaml:"gmail" mapstructure:"gmail"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Outreach  OutreachConfig  `yaml:"outreach" mapstructure:"outreach"`
	RunLog    RunLogConfig    `yaml:"runlog" mapstructure:"runlog"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SheetsConfig holds spreadsheet store settings.
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	LeadTable     string `yaml:"lead_table" mapstructure:"lead_table"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
}

// GmailConfig holds mail API and service-account identity settings.
type GmailConfig struct {
	ServiceAccountEmail string `yaml:"service_account_email" mapstructure:"service_account_email"`
	PrivateKeyPath      string `yaml:"private_key_path" mapstructure:"private_key_path"`
	UserEmail           string `yaml:"user_email" mapstructure:"user_email"`
	FromEmail           string `yaml:"from_email" mapstructure:"from_email"`
	BaseURL             string `yaml:"base_url" mapstructure:"base_url"`
	TokenURL            string `yaml:"token_url" mapstructure:"token_url"`
	APITimeoutSecs      int    `yaml:"api_timeout_secs" mapstructure:"api_timeout_secs"`
	MaxRetries          int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// FetchConfig configures the website fetcher.
type FetchConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySecs int     `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// OutreachConfig configures the batch orchestrator.
type OutreachConfig struct {
	MaxConcurrentWorkers    int `yaml:"max_concurrent_workers" mapstructure:"max_concurrent_workers"`
	RefreshIntervalContacts int `yaml:"refresh_interval_contacts" mapstructure:"refresh_interval_contacts"`
	BatchTimeoutSecs        int `yaml:"batch_timeout_secs" mapstructure:"batch_timeout_secs"`
}

// RunLogConfig configures the run log backend.
type RunLogConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("sheets.lead_table", "leads")
	v.SetDefault("sheets.base_url", "https://sheets.googleapis.com/v4/spreadsheets")
	v.SetDefault("gmail.base_url", "https://gmail.googleapis.com/gmail/v1")
	v.SetDefault("gmail.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("gmail.api_timeout_secs", 120)
	v.SetDefault("gmail.max_retries", 2)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 1)
	v.SetDefault("fetch.retry_delay_secs", 2)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.max_body_bytes", 512*1024)
	v.SetDefault("outreach.max_concurrent_workers", 3)
	v.SetDefault("outreach.refresh_interval_contacts", 10)
	v.SetDefault("outreach.batch_timeout_secs", 300)
	v.SetDefault("runlog.driver", "sqlite")
	v.SetDefault("runlog.path", "outreach.db")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
