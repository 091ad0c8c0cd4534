package config

import "github.com/go-playground/validator/v10"

var configValidator = validator.New()

// Validate runs struct-tag validation over a loaded Config. It is called
// by Load after ApplyDefaults so that validation errors reflect the final
// merged configuration rather than partially-populated input.
func Validate(cfg *Config) error {
	return configValidator.Struct(cfg)
}
