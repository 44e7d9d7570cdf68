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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Cloud    CloudConfig    `yaml:"cloud" mapstructure:"cloud"`
	Local    LocalConfig    `yaml:"local" mapstructure:"local"`
	Routing  RoutingConfig  `yaml:"routing" mapstructure:"routing"`
	Contract ContractConfig `yaml:"contract" mapstructure:"contract"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Fields   FieldsConfig   `yaml:"fields" mapstructure:"fields"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CloudConfig holds Anthropic API settings for the primary backend.
type CloudConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LocalConfig holds settings for the on-prem analysis backend.
type LocalConfig struct {
	Endpoint      string `yaml:"endpoint" mapstructure:"endpoint"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RoutingConfig configures backend selection.
type RoutingConfig struct {
	PrimaryEnabled bool    `yaml:"primary_enabled" mapstructure:"primary_enabled"`
	PreferPrimary  bool    `yaml:"prefer_primary" mapstructure:"prefer_primary"`
	CostCeilingUSD float64 `yaml:"cost_ceiling_usd" mapstructure:"cost_ceiling_usd"`
	SecondaryMaxMB int     `yaml:"secondary_max_mb" mapstructure:"secondary_max_mb"`
}

// ContractConfig holds business parameters for contract finalization.
type ContractConfig struct {
	ModuleKW float64 `yaml:"module_kw" mapstructure:"module_kw"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
}

// FieldsConfig points at an optional field mapping table override.
type FieldsConfig struct {
	TablePath string `yaml:"table_path" mapstructure:"table_path"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_documents", 4)
	v.SetDefault("contract.module_kw", 325)
	v.SetDefault("cloud.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("cloud.max_tokens", 4096)
	v.SetDefault("cloud.requests_per_sec", 2)
	v.SetDefault("cloud.timeout_secs", 120)
	v.SetDefault("local.endpoint", "http://localhost:8741/v1/analyze")
	v.SetDefault("local.pdftotext_path", "pdftotext")
	v.SetDefault("local.timeout_secs", 300)
	v.SetDefault("routing.primary_enabled", true)
	v.SetDefault("routing.prefer_primary", true)
	v.SetDefault("routing.cost_ceiling_usd", 25.00)
	v.SetDefault("routing.secondary_max_mb", 32)

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
