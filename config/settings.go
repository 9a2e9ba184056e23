package config

import (
	"fmt"
	"time"

	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/validation"
)

// Settings is the configuration for an application built around a container.
type Settings struct {
	Name        string          `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string          `yaml:"version" mapstructure:"version"`
	Container   ContainerConfig `yaml:"container" mapstructure:"container"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ContainerConfig controls how the application container is built.
type ContainerConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	// Eager is the container-wide default for creating singletons at load.
	Eager bool `yaml:"eager" mapstructure:"eager"`
	// CloseInstances calls Close on realized singletons when the container closes.
	CloseInstances *bool `yaml:"close_instances" mapstructure:"close_instances"`
	// Global also installs the container as the process-wide container.
	Global bool `yaml:"global" mapstructure:"global"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// GetSettings returns s. Application configs that embed Settings get it
// promoted.
func (s *Settings) GetSettings() *Settings { return s }

// ShouldCloseInstances reports the effective close_instances value.
func (c ContainerConfig) ShouldCloseInstances() bool {
	return c.CloseInstances == nil || *c.CloseInstances
}

// ApplyDefaults applies default values to the settings.
func (s *Settings) ApplyDefaults() {
	if s.Environment == "" {
		s.Environment = "development"
	}
	if s.Container.Name == "" {
		s.Container.Name = s.Name
	}
	if s.Telemetry.Enabled && s.Telemetry.SampleRate == 0 {
		s.Telemetry.SampleRate = 1.0
	}
	if s.Telemetry.MetricInterval == 0 {
		s.Telemetry.MetricInterval = 30 * time.Second
	}
	s.Logging.ApplyDefaults()
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	if err := validation.Validate(s); err != nil {
		return err
	}
	if err := s.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
