package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gookit/validate"
)

var ErrMissingEnvConfig = errors.New("no config for env")

// Load reads the TOML file at path and returns the validated config of env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnvConfig, env)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Validate(cfg *Config) error {
	v := validate.Struct(cfg)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	return nil
}
