package llm

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

const defaultMaxTokens = 1024

// Anthropic completes requests with Claude.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic wraps an Anthropic client for one model.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Anthropic{client: client, model: model, maxTokens: maxTokens}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	system := req.System
	if req.JSON {
		system += "\n\nRespond with a single JSON object and nothing else."
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: req.User}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", classifyAnthropic(err)
	}
	resp.Usage.LogCost(a.model, req.Stage)

	text := resp.Text()
	if text == "" {
		return "", eris.Errorf("llm: anthropic returned no text (stop_reason=%s)", resp.StopReason)
	}
	return text, nil
}

func classifyAnthropic(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && resilience.RetryableStatus(apiErr.StatusCode) {
		return resilience.Transient(err, apiErr.StatusCode)
	}
	return err
}
