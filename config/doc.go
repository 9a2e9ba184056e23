// Package config loads injector application settings.
//
// Settings come from a YAML file (config.yml) overlaid with a .env file and
// process environment variables. Nested keys bind from upper-case variable
// names, so CONTAINER_EAGER sets container.eager.
package config
