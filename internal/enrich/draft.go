package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/model"
)

// DraftRequest carries what the writer knows about the prospect.
type DraftRequest struct {
	Company    string
	Person     string
	Hypothesis string
	PainPoints []string
	Signals    []Signal
}

// Draft writes the cold email. Failures produce the "Error" sentinel draft
// with the failure detail as body; the lead is still recorded.
func (e *Enricher) Draft(ctx context.Context, in DraftRequest) Outcome[model.EmailDraft] {
	greeting := strings.TrimSpace(in.Person)
	if greeting == "" || strings.EqualFold(greeting, model.UnknownPerson) {
		greeting = "there"
	}

	draft, err := llm.CompleteJSON[model.EmailDraft](ctx, e.writer, llm.Request{
		Stage:       "draft",
		User:        draftUser(in, greeting, e.sender),
		Temperature: llm.Temp(e.draftTemp),
	})
	if err == nil {
		draft.Subject = strings.TrimSpace(draft.Subject)
		draft.Body = strings.TrimSpace(draft.Body)
		if draft.Subject == "" || draft.Body == "" {
			err = eris.New("enrich: draft reply missing subject or body")
		}
	}
	if err != nil {
		zap.L().Warn("enrich: drafting failed",
			zap.String("company", in.Company),
			zap.String("stage", "draft"),
			zap.Error(err),
		)
		return recovered(model.EmailDraft{Subject: model.ErrorSubject, Body: err.Error()}, err)
	}
	return succeeded(draft)
}
