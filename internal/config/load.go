package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads configuration from the environment, optionally merging a .env
// file first. An explicit envPath must exist; the implicit ./.env is
// best-effort.
func Load(envPath string) (Loaded, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return Loaded{}, fmt.Errorf("load env file %q: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := Default()

	cfg.Speech.APIKey = firstEnv("MISTRI_OPENAI_API_KEY", "OPENAI_API_KEY")
	if v := firstEnv("MISTRI_OPENAI_BASE_URL", "OPENAI_BASE_URL"); v != "" {
		cfg.Speech.BaseURL = v
	}
	if v := envString("MISTRI_TRANSCRIBE_MODEL"); v != "" {
		cfg.Speech.TranscribeModel = v
	}
	if v := envString("MISTRI_ENHANCE_MODEL"); v != "" {
		cfg.Speech.EnhanceModel = v
	}
	if v := envString("MISTRI_LANGUAGE"); v != "" {
		cfg.Speech.Language = v
	}

	cfg.Database.URL = firstEnv("MISTRI_DATABASE_URL", "DATABASE_URL")

	if v := envString("MISTRI_AUDIO_INPUT"); v != "" {
		cfg.Audio.Input = v
	}
	if v := envString("MISTRI_AUDIO_FALLBACK"); v != "" {
		cfg.Audio.Fallback = v
	}

	if v := envString("MISTRI_STAGE_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Loaded{}, fmt.Errorf("MISTRI_STAGE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Pipeline.StageTimeout = time.Duration(seconds) * time.Second
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{EnvPath: envPath, Config: cfg, Warnings: warnings}, nil
}

func envString(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := envString(name); v != "" {
			return v
		}
	}
	return ""
}
