package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
// Missing credentials are warnings, not errors: the manual search path and
// diagnostics commands stay usable with a partial configuration.
func Validate(cfg Config) ([]string, error) {
	if cfg.Pipeline.StageTimeout <= 0 {
		return nil, fmt.Errorf("stage timeout must be > 0")
	}
	if strings.TrimSpace(cfg.Speech.TranscribeModel) == "" {
		return nil, fmt.Errorf("transcribe model must not be empty")
	}
	if strings.TrimSpace(cfg.Speech.EnhanceModel) == "" {
		return nil, fmt.Errorf("enhance model must not be empty")
	}

	warnings := make([]string, 0)
	if cfg.Speech.APIKey == "" {
		warnings = append(warnings, "MISTRI_OPENAI_API_KEY is not set; voice transcription and enhancement are unavailable")
	}
	if cfg.Database.URL == "" {
		warnings = append(warnings, "MISTRI_DATABASE_URL is not set; product search is unavailable")
	}
	return warnings, nil
}
