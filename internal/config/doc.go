// Package config provides configuration loading and validation for the transcription relay.
// It handles YAML-based configuration with struct validation and supports overriding
// the transcription API key from the environment.
package config
