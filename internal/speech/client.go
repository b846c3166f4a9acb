package speech

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/mistri-ai/mistri/internal/audio"
)

const (
	// maxAttempts bounds total tries per Transcribe call: one initial
	// attempt plus two retries.
	maxAttempts = 3

	baseDelay = 1 * time.Second
	maxDelay  = 5 * time.Second

	// maxPayloadBytes mirrors the speech service's 25MB upload ceiling;
	// oversized payloads are rejected locally without a round trip.
	maxPayloadBytes = 25 << 20
)

// transcriptionAPI is the slice of the OpenAI client used here, split out so
// tests can substitute fakes without process-wide state.
type transcriptionAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Client calls the remote speech-to-text service with bounded retry.
type Client struct {
	api    transcriptionAPI
	model  string
	logger *slog.Logger

	// newBackOff is swapped in tests to avoid real backoff delays.
	newBackOff func() backoff.BackOff
}

// NewClient constructs a transcription client around an injected API handle.
func NewClient(api transcriptionAPI, model string, logger *slog.Logger) *Client {
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		api:        api,
		model:      model,
		logger:     logger,
		newBackOff: defaultBackOff,
	}
}

// Transcribe converts one finalized audio payload into text. Transient
// server failures are retried with exponential backoff; credential, quota,
// payload-size, and format failures surface immediately as classified
// errors. A successful call that recognizes no speech fails with
// KindNoSpeech.
func (c *Client) Transcribe(ctx context.Context, payload audio.Payload, language string) (string, error) {
	if len(payload.Data) > maxPayloadBytes {
		return "", &Error{Kind: KindPayloadTooLarge, Message: "audio payload exceeds 25MB"}
	}
	if language == "auto" {
		language = ""
	}

	var text string
	attempt := 0
	operation := func() error {
		attempt++
		resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.model,
			FilePath: "capture.wav",
			Reader:   bytes.NewReader(payload.Data),
			Language: language,
		})
		if err != nil {
			serr := classify(err)
			c.logger.Warn("transcription attempt failed",
				"attempt", attempt, "kind", string(serr.Kind))
			if !serr.Retryable() {
				return backoff.Permanent(serr)
			}
			return serr
		}
		text = resp.Text
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", &Error{Kind: KindNoSpeech, Message: "no speech detected in recording"}
	}

	c.logger.Info("transcription complete", "attempts", attempt, "chars", len(text))
	return text, nil
}

// defaultBackOff yields delays of min(1s * 2^n, 5s) between attempts.
func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseDelay
	bo.Multiplier = 2
	bo.MaxInterval = maxDelay
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	return bo
}
