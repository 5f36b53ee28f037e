// Package llm abstracts the chat backends used to qualify leads, extract
// decision-makers and draft emails.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Request is a single-turn chat completion.
type Request struct {
	// Stage names the pipeline step for logs and metrics.
	Stage       string
	System      string
	User        string
	Temperature *float64
	MaxTokens   int64
	// JSON asks the backend for a JSON object response where supported.
	JSON bool
}

// Completer returns the assistant text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Temp returns a pointer to t for Request.Temperature.
func Temp(t float64) *float64 { return &t }

// ExtractJSON pulls the JSON object out of a model reply, tolerating code
// fences and surrounding prose.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// DecodeJSON parses a model reply into T.
func DecodeJSON[T any](text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &out); err != nil {
		return out, eris.Wrap(err, "llm: decode json reply")
	}
	return out, nil
}

// CompleteJSON sends req with JSON mode on and decodes the reply into T.
func CompleteJSON[T any](ctx context.Context, c Completer, req Request) (T, error) {
	req.JSON = true
	text, err := c.Complete(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeJSON[T](text)
}
