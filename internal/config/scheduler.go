package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronParser accepts the optional seconds field used by the scheduler.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type SchedulerConfig struct {
	Spec       string        `mapstructure:"spec"`
	RunTimeout time.Duration `mapstructure:"run-timeout"`
	RunOnStart bool          `mapstructure:"run-on-start"`
}

func (cfg *SchedulerConfig) Validate() error {
	if cfg.Spec == "" {
		return errors.New("scheduler spec must be set")
	}
	if _, err := CronParser.Parse(cfg.Spec); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", cfg.Spec, err)
	}
	if cfg.RunTimeout <= 0 {
		return errors.New("run-timeout must be positive")
	}

	return nil
}
