// Package viper loads actor system configuration with spf13/viper.
package viper

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/codewandler/actr-go/core/actor"
)

// DefaultEnvPrefix is used when LoadConfig gets an empty prefix, so
// ACTR_HOST overrides host.
const DefaultEnvPrefix = "ACTR"

// LoadConfig reads path (YAML, JSON or TOML by extension) on top of
// actor.DefaultConfig and applies environment overrides. An empty path
// loads defaults and environment only. Keys are the mapstructure names of
// actor.Config:
//
//	name: orders
//	host: 10.0.0.1
//	port: 7000
//	dead_letter_throttle_interval: 5s
func LoadConfig(path, envPrefix string) (actor.Config, error) {
	v := New(path, envPrefix)
	if err := read(v); err != nil {
		return actor.Config{}, err
	}

	var cfg actor.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return actor.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// New returns a viper instance preloaded with the actor.Config defaults.
// Callers with a larger config can add their own defaults and decode into a
// struct embedding actor.Config with `mapstructure:",squash"`.
func New(path, envPrefix string) *viper.Viper {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Read reads the config file set on v. Without one it does nothing.
func Read(v *viper.Viper) error { return read(v) }

func read(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := actor.DefaultConfig()
	v.SetDefault("name", d.Name)
	v.SetDefault("worker_threads", d.WorkerThreads)
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("dead_letter_throttle_interval", d.DeadLetterThrottleInterval)
	v.SetDefault("dead_letter_throttle_count", d.DeadLetterThrottleCount)
	v.SetDefault("dead_letter_request_logging", d.DeadLetterRequestLogging)
	v.SetDefault("developer_supervision_logging", d.DeveloperSupervisionLogging)
	v.SetDefault("metrics_enabled", d.MetricsEnabled)
}
