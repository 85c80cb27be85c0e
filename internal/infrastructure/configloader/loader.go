package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig locates the durable account list.
type StorageConfig struct {
	DataDir string `yaml:"dataDir"`
}

// SyncConfig tunes the sync orchestrator.
type SyncConfig struct {
	IntervalSeconds       int `yaml:"intervalSeconds"`
	MaxConcurrentAccounts int `yaml:"maxConcurrentAccounts"`
	RPCCallTimeoutSeconds int `yaml:"rpcCallTimeoutSeconds"`
}

// LoaderConfig tunes the progressive loading controller.
type LoaderConfig struct {
	StaggerDelayMillis int `yaml:"staggerDelayMillis"`
	SoftTimeoutMillis  int `yaml:"softTimeoutMillis"`
	MaxAttempts        int `yaml:"maxAttempts"`
	BackoffBaseMillis  int `yaml:"backoffBaseMillis"`
}

// OracleConfig configures the price oracle client.
type OracleConfig struct {
	BaseURL              string `yaml:"baseURL"`
	VsCurrency           string `yaml:"vsCurrency"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	RateLimit            int    `yaml:"rateLimit"`
	BurstLimit           int    `yaml:"burstLimit"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig               `yaml:"server"`
	Logging  LoggingConfig              `yaml:"logging"`
	Storage  StorageConfig              `yaml:"storage"`
	Sync     SyncConfig                 `yaml:"sync"`
	Loader   LoaderConfig               `yaml:"loader"`
	Oracle   OracleConfig               `yaml:"oracle"`
	Networks []entity.NetworkDefinition `yaml:"networks"`
}

// Load reads the YAML configuration file from the given path, unmarshals it and
// applies defaults for every omitted knob.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	for i, network := range cfg.Networks {
		if network.Chain == "" {
			return nil, fmt.Errorf("networks[%d]: chainId must be set", i)
		}
		if network.PrimaryRPCURL == "" {
			return nil, fmt.Errorf("network %s: primaryRpcUrl must be set", network.Chain)
		}
		switch network.Kind {
		case entity.NetworkEVM, entity.NetworkSolana, entity.NetworkSui:
		default:
			return nil, fmt.Errorf("network %s: unknown kind %q", network.Chain, network.Kind)
		}
		if network.NativeDecimals == 0 {
			switch network.Kind {
			case entity.NetworkEVM:
				cfg.Networks[i].NativeDecimals = 18
			default:
				cfg.Networks[i].NativeDecimals = 9
			}
		}
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 60
	}
	if cfg.Sync.MaxConcurrentAccounts <= 0 {
		cfg.Sync.MaxConcurrentAccounts = 5
	}
	if cfg.Sync.RPCCallTimeoutSeconds <= 0 {
		cfg.Sync.RPCCallTimeoutSeconds = 10
	}
	if cfg.Loader.StaggerDelayMillis <= 0 {
		cfg.Loader.StaggerDelayMillis = 100
	}
	if cfg.Loader.SoftTimeoutMillis <= 0 {
		cfg.Loader.SoftTimeoutMillis = 5000
	}
	if cfg.Loader.MaxAttempts <= 0 {
		cfg.Loader.MaxAttempts = 3
	}
	if cfg.Loader.BackoffBaseMillis <= 0 {
		cfg.Loader.BackoffBaseMillis = 500
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://quotes.cygnus-wealth.io"
	}
	if cfg.Oracle.VsCurrency == "" {
		cfg.Oracle.VsCurrency = "usd"
	}
	if cfg.Oracle.RequestTimeoutMillis <= 0 {
		cfg.Oracle.RequestTimeoutMillis = 10000
	}
	if cfg.Oracle.RateLimit <= 0 {
		cfg.Oracle.RateLimit = 5
	}
	if cfg.Oracle.BurstLimit <= 0 {
		cfg.Oracle.BurstLimit = 10
	}
	if cfg.Oracle.CacheTTLMinutes <= 0 {
		cfg.Oracle.CacheTTLMinutes = 5
	}
}
