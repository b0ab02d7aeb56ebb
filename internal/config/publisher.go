package config

import (
	"fmt"
)

type PublisherConfig struct {
	Dir string `mapstructure:"dir"`
}

func (cfg *PublisherConfig) Validate() error {
	if cfg.Dir == "" {
		return fmt.Errorf("publisher dir must be set")
	}

	return nil
}
