package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "SRD"

type Config struct {
	Db           DbConfig           `mapstructure:"db"`
	Eth          EthConfig          `mapstructure:"eth"`
	Markets      []MarketConfig     `mapstructure:"markets"`
	Distribution DistributionConfig `mapstructure:"distribution"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Publisher    PublisherConfig    `mapstructure:"publisher"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	// Queue is optional, snapshot notifications are disabled without it.
	Queue *QueueConfig `mapstructure:"queue"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Db.Validate(); err != nil {
		return fmt.Errorf("invalid db config: %w", err)
	}
	if err := cfg.Eth.Validate(); err != nil {
		return fmt.Errorf("invalid eth config: %w", err)
	}
	if err := validateMarkets(cfg.Markets); err != nil {
		return err
	}
	if err := cfg.Distribution.Validate(); err != nil {
		return fmt.Errorf("invalid distribution config: %w", err)
	}
	if err := cfg.Ledger.Validate(); err != nil {
		return fmt.Errorf("invalid ledger config: %w", err)
	}
	if err := cfg.Publisher.Validate(); err != nil {
		return fmt.Errorf("invalid publisher config: %w", err)
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return fmt.Errorf("invalid scheduler config: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	if cfg.Queue != nil {
		if err := cfg.Queue.Validate(); err != nil {
			return fmt.Errorf("invalid queue config: %w", err)
		}
	}

	return nil
}

// MarketNames lists the configured markets in configuration order.
func (cfg *Config) MarketNames() []string {
	names := make([]string, 0, len(cfg.Markets))
	for _, m := range cfg.Markets {
		names = append(names, m.Name)
	}
	return names
}

// New returns a fully parsed Config object from a given file path.
func New(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	/*
		Nested keys are overridden with `_` and dashes with `__`, e.g.
		`db.db-name` becomes `SRD_DB_DB__NAME`. Dashes are not usable
		in env variable names on every shell.
	*/
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "__"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
