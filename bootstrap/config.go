package bootstrap

import (
	"github.com/kbukum/injector/config"
)

// Config is the constraint for application configuration types. Any struct
// that embeds config.Settings satisfies it through promoted methods.
//
// Example:
//
//	type OrdersConfig struct {
//	    config.Settings `yaml:",inline" mapstructure:",squash"`
//	    BatchSize int   `yaml:"batch_size" mapstructure:"batch_size"`
//	}
//
//	app, err := bootstrap.NewApp[*OrdersConfig](&cfg)
type Config interface {
	GetSettings() *config.Settings
	ApplyDefaults()
	Validate() error
}
