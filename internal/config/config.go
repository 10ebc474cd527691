// Package config provides configuration loading from environment variables.
package config

import (
	"time"
)

// ServiceConfig holds configuration for the classifier service.
type ServiceConfig struct {
	Port        string
	MetricsPort string
	APIKey      string

	ShutdownGrace     time.Duration // cooperative wait for in-flight jobs on shutdown
	TerminateGrace    time.Duration // wait after cancelling running jobs
	ShutdownDrainWait time.Duration // time to wait for load balancer to drain (0 to skip)
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              GetEnv("PORT", "8000"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		ShutdownGrace:     GetDurationEnv("SHUTDOWN_GRACE", 10*time.Second),
		TerminateGrace:    GetDurationEnv("TERMINATE_GRACE", 2*time.Second),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 0),
	}
}
