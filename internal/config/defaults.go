package config

import "time"

// Default returns the canonical runtime configuration before environment
// overrides are applied.
func Default() Config {
	return Config{
		Speech: SpeechConfig{
			TranscribeModel: "whisper-1",
			EnhanceModel:    "gpt-4o-mini",
			Language:        "auto",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Pipeline: PipelineConfig{
			StageTimeout: 30 * time.Second,
		},
	}
}
