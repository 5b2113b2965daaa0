// Package config holds the tunable parameters of the transcription and
// scoring pipelines, plus the HTTP server settings.
//
// Every section has a Default…Config constructor; a file loaded with Load only
// needs to name the fields it overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// TranscriptionConfig tunes the recording → notated rhythm pipeline
type TranscriptionConfig struct {
	SampleRate        int     `yaml:"sample_rate" json:"sample_rate"`
	Strategy          string  `yaml:"strategy" json:"strategy"`                       // "nearest", "floor", "ceil"
	MinSegmentSeconds float64 `yaml:"min_segment_seconds" json:"min_segment_seconds"` // shorter cuts are silence
	FloorNote         string  `yaml:"floor_note" json:"floor_note"`                   // lowest note written, e.g. "G3"
	TempoOverride     float64 `yaml:"tempo_override,omitempty" json:"tempo_override,omitempty"`
}

// SegmentConfig tunes the frame → note-segment merger
type SegmentConfig struct {
	VoicedProbThreshold float64 `yaml:"voiced_prob_threshold" json:"voiced_prob_threshold"`
	ToleranceCents      float64 `yaml:"tolerance_cents" json:"tolerance_cents"`
	MinSegmentSeconds   float64 `yaml:"min_segment_seconds" json:"min_segment_seconds"`
	RegisterFloor       float64 `yaml:"register_floor" json:"register_floor"` // Hz
	MedianWindow        int     `yaml:"median_window" json:"median_window"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr                string   `yaml:"addr" json:"addr"`
	AllowedOrigins      []string `yaml:"allowed_origins" json:"allowed_origins"`
	ReadTimeoutSeconds  float64  `yaml:"read_timeout_seconds" json:"read_timeout_seconds"`
	WriteTimeoutSeconds float64  `yaml:"write_timeout_seconds" json:"write_timeout_seconds"`
	MaxBodyBytes        int64    `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// Config is the root configuration document
type Config struct {
	Transcription TranscriptionConfig `yaml:"transcription" json:"transcription"`
	Segments      SegmentConfig       `yaml:"segments" json:"segments"`
	Server        ServerConfig        `yaml:"server" json:"server"`

	// SongsFile optionally points at a YAML/JSON file of reference melodies
	SongsFile string `yaml:"songs_file,omitempty" json:"songs_file,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// DefaultTranscriptionConfig returns the defaults used for 22.05 kHz mono input
func DefaultTranscriptionConfig() TranscriptionConfig {
	return TranscriptionConfig{
		SampleRate:        22050,
		Strategy:          "nearest",
		MinSegmentSeconds: 0.01,
		FloorNote:         "G3", // lowest violin string
	}
}

// DefaultSegmentConfig returns defaults tuned for bowed violin
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		VoicedProbThreshold: 0.3,
		ToleranceCents:      40,
		MinSegmentSeconds:   0.05,
		RegisterFloor:       200.0,
		MedianWindow:        5,
	}
}

// DefaultServerConfig returns the server defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr: ":8000",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		ReadTimeoutSeconds:  30,
		WriteTimeoutSeconds: 30,
		MaxBodyBytes:        8 << 20,
	}
}

// DefaultConfig returns a complete configuration with every section defaulted
func DefaultConfig() *Config {
	return &Config{
		Transcription: DefaultTranscriptionConfig(),
		Segments:      DefaultSegmentConfig(),
		Server:        DefaultServerConfig(),
		LogLevel:      "info",
	}
}

// Validate checks the transcription parameters
func (c TranscriptionConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("transcription.sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.MinSegmentSeconds < 0 {
		return fmt.Errorf("transcription.min_segment_seconds must not be negative, got %v", c.MinSegmentSeconds)
	}
	if strings.TrimSpace(c.FloorNote) == "" {
		return fmt.Errorf("transcription.floor_note is required")
	}
	return nil
}

// Validate checks the segment merger parameters
func (c SegmentConfig) Validate() error {
	if c.VoicedProbThreshold < 0 || c.VoicedProbThreshold > 1 {
		return fmt.Errorf("segments.voiced_prob_threshold must be in [0, 1], got %v", c.VoicedProbThreshold)
	}
	if c.ToleranceCents < 0 {
		return fmt.Errorf("segments.tolerance_cents must not be negative, got %v", c.ToleranceCents)
	}
	if c.MinSegmentSeconds < 0 {
		return fmt.Errorf("segments.min_segment_seconds must not be negative, got %v", c.MinSegmentSeconds)
	}
	if c.MedianWindow < 1 || c.MedianWindow%2 == 0 {
		return fmt.Errorf("segments.median_window must be a positive odd number, got %d", c.MedianWindow)
	}
	return nil
}

// Validate checks the server parameters
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Transcription.Validate(); err != nil {
		return err
	}
	if err := c.Segments.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}

// Load reads a configuration file on top of DefaultConfig and validates the result
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeFile decodes a YAML or JSON file into v, choosing the format by extension
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return Decode(data, filepath.Ext(path), v)
}

// Decode decodes YAML or JSON data into v. Unknown extensions try YAML first, then JSON.
func Decode(data []byte, ext string, v any) error {
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			if err := json.Unmarshal(data, v); err != nil {
				return fmt.Errorf("failed to parse file (tried YAML and JSON): %w", err)
			}
		}
	}
	return nil
}
