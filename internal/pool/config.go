package pool

import (
	"classifier/internal/config"
)

// Config holds configuration for the worker pool.
type Config struct {
	Workers       int // concurrent job goroutines (default: 1)
	QueueCapacity int // pending task buffer (default: 100)
}

// LoadConfigFromEnv loads pool configuration from environment variables.
func LoadConfigFromEnv() Config {
	cfg := Config{
		Workers:       config.GetIntEnv("MAX_WORKERS", 1),
		QueueCapacity: config.GetIntEnv("QUEUE_CAPACITY", 100),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults.
func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	return c
}
