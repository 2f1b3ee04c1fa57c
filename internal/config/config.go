// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package config loads the RTU slave's YAML configuration via Viper,
// the way the teacher's gateway config does, but scoped to a single
// serial link instead of a set of gateways.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for one rtuslave process.
type Config struct {
	SlaveAddress  byte         `mapstructure:"slave_address"`
	TimingProfile string       `mapstructure:"timing_profile"` // standard | fast
	QueueDepth    int          `mapstructure:"queue_depth"`
	Serial        SerialConfig `mapstructure:"serial"`
	ADC           ADCConfig    `mapstructure:"adc"`
	Log           LogConfig    `mapstructure:"log"`
}

// SerialConfig describes the RS-485/RS-232 link to the bus.
type SerialConfig struct {
	Device   string `mapstructure:"device"`
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	Parity   string `mapstructure:"parity"`
	StopBits int    `mapstructure:"stop_bits"`
}

// ADCConfig configures the example application's simulated sampler.
type ADCConfig struct {
	Channels       int           `mapstructure:"channels"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	Storage        StorageConfig `mapstructure:"storage"`
}

// StorageConfig selects the ADC's register persistence backend.
type StorageConfig struct {
	Type string `mapstructure:"type"` // memory | mmap
	Path string `mapstructure:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // "" or "-" means stdout
}

// LoadConfig reads and validates configuration from configFile, or
// from the default search path (/etc/rtuslave, $HOME/.rtuslave, .) if
// configFile is empty.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/rtuslave/")
		v.AddConfigPath("$HOME/.rtuslave")
		v.AddConfigPath(".")
	}

	v.SetDefault("slave_address", 1)
	v.SetDefault("timing_profile", "standard")
	v.SetDefault("queue_depth", 32)
	v.SetDefault("serial.baud_rate", 19200)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.parity", "N")
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("adc.channels", 8)
	v.SetDefault("adc.sample_interval", 100*time.Millisecond)
	v.SetDefault("adc.storage.type", "memory")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Serial.Parity = strings.ToUpper(cfg.Serial.Parity)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.TimingProfile) {
	case "standard", "fast":
	default:
		return fmt.Errorf("config: unknown timing_profile %q (want standard or fast)", c.TimingProfile)
	}
	switch strings.ToLower(c.ADC.Storage.Type) {
	case "memory":
	case "mmap":
		if c.ADC.Storage.Path == "" {
			return fmt.Errorf("config: adc.storage.path is required when adc.storage.type is mmap")
		}
	default:
		return fmt.Errorf("config: unknown adc.storage.type %q (want memory or mmap)", c.ADC.Storage.Type)
	}
	if c.ADC.Channels <= 0 {
		return fmt.Errorf("config: adc.channels must be positive, got %d", c.ADC.Channels)
	}
	return nil
}
