package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/docqa/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new answer generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Answer generates an answer to the question grounded in the passages.
// With no passages to ground on, the model is never called and the
// no-answer sentinel is returned directly.
func (g *Generator) Answer(ctx context.Context, question string, passages []string) (string, error) {
	if len(passages) == 0 {
		return ai.NoAnswerSentinel, nil
	}

	g.logger.Debug("generating answer", "question_length", len(question), "passages", len(passages))

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnswerPrompt(passages)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(question),
			},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		g.logger.Error("failed to generate answer", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model")
		return ai.NoAnswerSentinel, nil
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
