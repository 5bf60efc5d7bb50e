package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// FeeTier is one named fee tier's maker/taker rates, expressed as decimal
// strings so viper unmarshaling stays exact; the fees package parses them
// into clobdecimal.Decimal at startup.
type FeeTier struct {
	MakerRate string `mapstructure:"maker_rate"`
	TakerRate string `mapstructure:"taker_rate"`
}

// Config is the matching core's complete configuration, loaded once from
// a file plus environment overrides. It carries the options enumerated in
// spec.md §6, plus the fee currency and fee precision the fee calculator
// takes, and the seed symbol list and log level the ambient stack needs
// at boot.
type Config struct {
	WALPath               string             `mapstructure:"wal_path"`
	SnapshotDir           string             `mapstructure:"snapshot_dir"`
	SnapshotRetainN       int                `mapstructure:"snapshot_retain_n"`
	FeeTiers              map[string]FeeTier `mapstructure:"fee_tiers"`
	FeeCurrency           string             `mapstructure:"fee_currency"`
	FeePrecision          int32              `mapstructure:"fee_precision"`
	MaxOrderQuantity      string             `mapstructure:"max_order_quantity"`
	MaxPrice              string             `mapstructure:"max_price"`
	ConditionalCascadeCap int                `mapstructure:"conditional_cascade_cap"`
	Symbols               []string           `mapstructure:"symbols"`
	LogLevel              string             `mapstructure:"log_level"`
}

var (
	config *Config
	once   sync.Once
)

// LoadConfig loads the configuration from configPath (a directory to
// search for "config.yaml"), applying defaults first so a missing file or
// missing keys still produce a usable Config.
func LoadConfig(configPath string) (*Config, error) {
	var err error

	once.Do(func() {
		config = &Config{}
		setDefaults(config)

		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if configPath != "" {
			v.AddConfigPath(configPath)
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
			v.AddConfigPath("/etc/clob-core")
		}

		v.AutomaticEnv()
		v.SetEnvPrefix("CLOB")

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config file: %w", readErr)
				return
			}
		}

		if unmarshalErr := v.Unmarshal(config); unmarshalErr != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
			return
		}
	})

	return config, err
}

// GetConfig returns the process-wide Config, loading it with defaults if
// LoadConfig has not yet been called.
func GetConfig() *Config {
	if config == nil {
		if _, err := LoadConfig(""); err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	}
	return config
}

// setDefaults mirrors spec.md §6's enumerated defaults.
func setDefaults(c *Config) {
	c.WALPath = "data/wal/orders.log"
	c.SnapshotDir = "data/snapshots"
	c.SnapshotRetainN = 5
	c.FeeTiers = map[string]FeeTier{
		"default": {MakerRate: "0", TakerRate: "0"},
	}
	c.FeeCurrency = "USD"
	c.FeePrecision = 8
	c.MaxOrderQuantity = "1000000"
	c.MaxPrice = "1000000"
	c.ConditionalCascadeCap = 1024
	c.Symbols = []string{"BTC-USD"}
	c.LogLevel = "info"
}

// InitLogger builds a zap.Logger from cfg.LogLevel: "debug" selects zap's
// development logger; every other value selects the production logger,
// which logs at info level and above.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch cfg.LogLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	case "info", "warn", "error":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
