package config

import (
	"errors"
	"time"
)

type QueueConfig struct {
	URL            string        `mapstructure:"url"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Exchange       string        `mapstructure:"exchange"`
	RoutingKey     string        `mapstructure:"routing-key"`
	PublishTimeout time.Duration `mapstructure:"publish-timeout"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.URL == "" {
		return errors.New("queue url is required")
	}
	if cfg.User == "" || cfg.Password == "" {
		return errors.New("queue credentials are required")
	}
	if cfg.RoutingKey == "" {
		return errors.New("queue routing key is required")
	}
	if cfg.PublishTimeout <= 0 {
		return errors.New("publish-timeout must be positive")
	}

	return nil
}
