// Package config resolves, validates, and defaults mistri configuration
// from the environment.
package config

import "time"

// Config is the fully materialized runtime configuration.
type Config struct {
	Speech   SpeechConfig
	Database DatabaseConfig
	Audio    AudioConfig
	Pipeline PipelineConfig
}

// SpeechConfig controls the remote speech and completion services.
type SpeechConfig struct {
	APIKey          string
	BaseURL         string
	TranscribeModel string
	EnhanceModel    string
	Language        string
}

// DatabaseConfig points at the remote product table.
type DatabaseConfig struct {
	URL string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// PipelineConfig controls orchestrator-level behavior.
type PipelineConfig struct {
	StageTimeout time.Duration
}

// Loaded captures the resolved configuration plus non-fatal warnings.
type Loaded struct {
	EnvPath  string
	Config   Config
	Warnings []string
}
