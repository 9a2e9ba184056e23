// Package validation validates configuration structs with
// go-playground/validator struct tags.
//
// Field names in messages come from the mapstructure tag, falling back to
// snake_case, so errors read the same as the keys in the config file:
//
//	type Settings struct {
//	    Name string `mapstructure:"name" validate:"required"`
//	}
//
//	if err := validation.Validate(&cfg); err != nil {
//	    // err is an *errors.AppError with code INVALID_CONFIG
//	}
package validation
