// Package enhance normalizes free-text transcripts into concise
// product-search terms via a remote completion service.
package enhance

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// instruction pins the completion to short term extraction rather than prose.
const instruction = "Extract construction material search terms from the text. " +
	"Identify the material type, measurements, and quantities. " +
	"Reply with a short space-separated list of search terms in English and nothing else."

const (
	temperature = 0.1
	maxTokens   = 60
)

// completionAPI is the slice of the OpenAI client used here, split out so
// tests can substitute fakes.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Enhancer rewrites raw transcripts into search terms. Enhancement is
// strictly best-effort: Enhance never fails, it returns the input unchanged
// when the service cannot improve it.
type Enhancer struct {
	api    completionAPI
	model  string
	logger *slog.Logger
}

// New constructs an enhancer around an injected API handle.
func New(api completionAPI, model string, logger *slog.Logger) *Enhancer {
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enhancer{api: api, model: model, logger: logger}
}

// Enhance returns extracted search terms for raw, or raw itself on any
// failure. The search pipeline stays functional without enhancement.
func (e *Enhancer) Enhance(ctx context.Context, raw string) string {
	if e == nil || e.api == nil || strings.TrimSpace(raw) == "" {
		return raw
	}

	resp, err := e.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: raw},
		},
	})
	if err != nil {
		e.logger.Warn("enhancement failed; using raw transcript", "error", err.Error())
		return raw
	}
	if len(resp.Choices) == 0 {
		return raw
	}

	terms := strings.TrimSpace(resp.Choices[0].Message.Content)
	if terms == "" {
		return raw
	}

	e.logger.Info("transcript enhanced", "raw_chars", len(raw), "term_chars", len(terms))
	return terms
}
