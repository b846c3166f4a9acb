// Package doctor runs runtime readiness diagnostics for config, speech
// credentials, the product database, and audio capture.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mistri-ai/mistri/internal/audio"
	"github.com/mistri-ai/mistri/internal/catalog"
	"github.com/mistri-ai/mistri/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment and collaborator checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{
		{Name: "config", Pass: true, Message: configMessage(loaded)},
		checkAPIKey(cfg),
		checkDatabase(ctx, cfg),
		checkAudio(ctx, cfg),
	}
	return Report{Checks: checks}
}

func configMessage(loaded config.Loaded) string {
	if loaded.EnvPath != "" {
		return fmt.Sprintf("loaded with env file %q", loaded.EnvPath)
	}
	return "loaded from environment"
}

func checkAPIKey(cfg config.Config) Check {
	if strings.TrimSpace(cfg.Speech.APIKey) == "" {
		return Check{Name: "speech_api_key", Pass: false, Message: "MISTRI_OPENAI_API_KEY is not set"}
	}
	return Check{Name: "speech_api_key", Pass: true, Message: "API key configured"}
}

func checkDatabase(ctx context.Context, cfg config.Config) Check {
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return Check{Name: "product_database", Pass: false, Message: "MISTRI_DATABASE_URL is not set"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	pool, err := catalog.Connect(pingCtx, cfg.Database.URL)
	if err != nil {
		return Check{Name: "product_database", Pass: false, Message: err.Error()}
	}
	pool.Close()
	return Check{Name: "product_database", Pass: true, Message: "connection and ping succeeded"}
}

func checkAudio(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio_input", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("using %q", selection.Device.ID)
	if selection.Warning != "" {
		message = selection.Warning
	}
	return Check{Name: "audio_input", Pass: true, Message: message}
}
