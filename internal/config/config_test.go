package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:           8000,
			BindAddress:    "0.0.0.0",
			AllowedOrigins: []string{"*"},
			ReadLimit:      4 << 20,
		},
		HTTP: HTTPConfig{
			Port:    9090,
			Address: "0.0.0.0",
			Enabled: true,
		},
		Session: SessionConfig{
			PassInterval:     2.0,
			MinSegmentCount:  2,
			MaxSegmentBytes:  1 << 20,
			MaxBufferedBytes: 16 << 20,
		},
		Transcription: TranscriptionConfig{
			Endpoint: "https://api.groq.com/openai/v1/audio/transcriptions",
			APIKey:   "test-key",
			Model:    "whisper-large-v3-turbo",
			Language: "en",
			Timeout:  30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid server port",
			mutate:      func(c *Config) { c.Server.Port = 70000 },
			expectError: true,
			errorMsg:    "port must be between 1 and 65535",
		},
		{
			name:        "empty allowed origins",
			mutate:      func(c *Config) { c.Server.AllowedOrigins = nil },
			expectError: true,
			errorMsg:    "allowed_origins cannot be empty",
		},
		{
			name:        "read limit too small",
			mutate:      func(c *Config) { c.Server.ReadLimit = 100 },
			expectError: true,
			errorMsg:    "read_limit must be at least 1024",
		},
		{
			name:        "zero pass interval",
			mutate:      func(c *Config) { c.Session.PassInterval = 0 },
			expectError: true,
			errorMsg:    "pass_interval must be positive",
		},
		{
			name:        "zero min segment count",
			mutate:      func(c *Config) { c.Session.MinSegmentCount = 0 },
			expectError: true,
			errorMsg:    "min_segment_count must be at least 1",
		},
		{
			name:        "buffer cap below segment cap",
			mutate:      func(c *Config) { c.Session.MaxBufferedBytes = 2048 },
			expectError: true,
			errorMsg:    "max_buffered_bytes",
		},
		{
			name:        "missing endpoint",
			mutate:      func(c *Config) { c.Transcription.Endpoint = "" },
			expectError: true,
			errorMsg:    "endpoint cannot be empty",
		},
		{
			name:        "missing API key",
			mutate:      func(c *Config) { c.Transcription.APIKey = "" },
			expectError: true,
			errorMsg:    "api_key cannot be empty",
		},
		{
			name:        "missing model",
			mutate:      func(c *Config) { c.Transcription.Model = "" },
			expectError: true,
			errorMsg:    "model cannot be empty",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name: "http disabled skips port validation",
			mutate: func(c *Config) {
				c.HTTP.Enabled = false
				c.HTTP.Port = 0
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	configYAML := `
server:
  port: 8000
  bind_address: "0.0.0.0"
  allowed_origins:
    - "http://localhost:3000"
    - "https://transcriber.example.com"
  read_limit: 4194304
http:
  port: 9090
  address: "0.0.0.0"
  enabled: true
session:
  pass_interval: 2.0
  min_segment_count: 2
  max_segment_bytes: 1048576
  max_buffered_bytes: 16777216
transcription:
  endpoint: "https://api.groq.com/openai/v1/audio/transcriptions"
  api_key: "file-key"
  model: "whisper-large-v3-turbo"
  language: "en"
  timeout: 30
logging:
  level: "info"
  format: "json"
  output: "stdout"
`

	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Server.Port != 8000 {
		t.Errorf("Expected port 8000, got %d", config.Server.Port)
	}

	if len(config.Server.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 allowed origins, got %d", len(config.Server.AllowedOrigins))
	}

	if config.Transcription.Model != "whisper-large-v3-turbo" {
		t.Errorf("Expected model whisper-large-v3-turbo, got %s", config.Transcription.Model)
	}

	if config.Session.MinSegmentCount != 2 {
		t.Errorf("Expected min segment count 2, got %d", config.Session.MinSegmentCount)
	}
}

func TestConfigLoadAPIKeyFromEnvironment(t *testing.T) {
	tempDir := t.TempDir()

	configYAML := `
server:
  port: 8000
  bind_address: "0.0.0.0"
  allowed_origins: ["*"]
  read_limit: 4194304
session:
  pass_interval: 2.0
  min_segment_count: 2
  max_segment_bytes: 1048576
  max_buffered_bytes: 16777216
transcription:
  endpoint: "https://api.groq.com/openai/v1/audio/transcriptions"
  model: "whisper-large-v3-turbo"
  language: "en"
  timeout: 30
logging:
  level: "info"
  format: "text"
  output: "stdout"
`

	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	// No api_key in the file; the environment must supply it.
	t.Setenv("GROQ_API_KEY", "env-key")

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config with env API key: %v", err)
	}

	if config.Transcription.APIKey != "env-key" {
		t.Errorf("Expected API key from environment, got '%s'", config.Transcription.APIKey)
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Errorf("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	session := SessionConfig{PassInterval: 2.5}
	if session.GetPassInterval() != 2500*time.Millisecond {
		t.Errorf("Expected 2.5 seconds, got %v", session.GetPassInterval())
	}

	transcription := TranscriptionConfig{Timeout: 30}
	if transcription.GetTimeoutDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", transcription.GetTimeoutDuration())
	}
}
