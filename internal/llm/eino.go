package llm

import (
	"context"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Eino completes requests through an eino chat model, typically the
// OpenAI-compatible adapter pointed at OpenAI, Ollama or DeepSeek.
type Eino struct {
	model model.BaseChatModel
}

// NewEino wraps an existing eino chat model.
func NewEino(m model.BaseChatModel) *Eino {
	return &Eino{model: m}
}

// NewOpenAICompatible builds an eino OpenAI chat model for baseURL.
func NewOpenAICompatible(ctx context.Context, baseURL, apiKey, modelName string) (*Eino, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: init openai-compatible model")
	}
	return NewEino(cm), nil
}

// Complete implements Completer.
func (e *Eino) Complete(ctx context.Context, req Request) (string, error) {
	system := req.System
	if req.JSON {
		system += "\n\nRespond with a single JSON object and nothing else."
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: req.User},
	}

	var opts []model.Option
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(float32(*req.Temperature)))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(int(req.MaxTokens)))
	}

	resp, err := e.model.Generate(ctx, messages, opts...)
	if err != nil {
		return "", classifyEino(err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", eris.New("llm: eino returned empty content")
	}
	return resp.Content, nil
}

// The eino adapters surface HTTP failures only as text.
func classifyEino(err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "too many requests", "status code: 5", "502", "503", "504"} {
		if strings.Contains(msg, marker) {
			return resilience.Transient(err, 0)
		}
	}
	return eris.Wrap(err, "llm: eino generate")
}
