package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("config: invalid value")

	// ErrLoadConfig wraps failures reading the YAML file or the environment.
	ErrLoadConfig = errors.New("config: load failed")
)
