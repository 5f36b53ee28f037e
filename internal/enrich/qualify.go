package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/model"
)

// qualifyReply is the JSON shape requested from the model.
type qualifyReply struct {
	IsQualified  *bool    `json:"is_qualified_business"`
	Reason       string   `json:"reason_for_disqualification"`
	CompanyName  string   `json:"company_name"`
	CoreBusiness string   `json:"core_business"`
	PainPoints   []string `json:"operational_pain_points"`
	Hypothesis   string   `json:"automation_hypothesis"`
}

// Qualify classifies the site content. Backend or parse failures yield a
// disqualified profile named fallbackName with FailureTransient; a model
// verdict of "not qualified" halts the candidate.
func (e *Enricher) Qualify(ctx context.Context, content, fallbackName string) Outcome[model.BusinessProfile] {
	log := zap.L().With(zap.String("company", fallbackName), zap.String("stage", "qualify"))

	user := truncate(content, e.qualifyLimit)
	if strings.TrimSpace(user) == "" {
		user = "No content"
	}

	reply, err := llm.CompleteJSON[qualifyReply](ctx, e.analyst, llm.Request{
		Stage:       "qualify",
		System:      qualifySystem(DetectSignals(content)),
		User:        user,
		Temperature: llm.Temp(0.2),
	})
	if err == nil && reply.IsQualified == nil {
		err = eris.New("enrich: qualify reply missing is_qualified_business")
	}
	if err != nil {
		log.Warn("enrich: qualification failed", zap.Error(err))
		return recovered(model.BusinessProfile{
			IsQualified:            false,
			CompanyName:            fallbackName,
			PainPoints:             []string{},
			DisqualificationReason: err.Error(),
		}, err)
	}

	profile := model.BusinessProfile{
		IsQualified:            *reply.IsQualified,
		CompanyName:            strings.TrimSpace(reply.CompanyName),
		CoreBusiness:           strings.TrimSpace(reply.CoreBusiness),
		PainPoints:             cleanList(reply.PainPoints),
		AutomationHypothesis:   strings.TrimSpace(reply.Hypothesis),
		DisqualificationReason: strings.TrimSpace(reply.Reason),
	}
	if profile.CompanyName == "" {
		profile.CompanyName = fallbackName
	}

	if !profile.IsQualified {
		reason := profile.DisqualificationReason
		if reason == "" {
			reason = "not a qualified business"
		}
		return halted(profile, eris.Errorf("enrich: %s disqualified: %s", profile.CompanyName, reason))
	}
	return succeeded(profile)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
