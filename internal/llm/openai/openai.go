package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ticker-digest/internal/api"
	"ticker-digest/internal/store"
	"ticker-digest/internal/trace"
)

const completionsURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = "You are an expert financial analyst. Respond ONLY with a single valid JSON object, no markdown fences and no commentary."

// Completer calls the OpenAI chat completions API over plain HTTP.
type Completer struct {
	cfg    *store.Config
	client *api.Client
}

func NewCompleter(cfg *store.Config) *Completer {
	return &Completer{
		cfg: cfg,
		client: api.NewClient(
			api.WithTimeout(120*time.Second),
			api.WithLogging(true),
		),
	}
}

func (c *Completer) ModelTag() string {
	return "llm:" + c.cfg.LLM.Model
}

// Complete sends prompt to the chat completions endpoint and returns the
// raw assistant message. Callers own all JSON extraction and validation.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": c.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": c.cfg.LLM.Temperature,
		"max_tokens":  c.cfg.LLM.MaxTokens,
	}

	resp, err := c.client.POST(ctx, completionsURL, body, map[string]string{
		"Authorization": "Bearer " + apiKey,
	})
	if err != nil {
		return "", err
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
