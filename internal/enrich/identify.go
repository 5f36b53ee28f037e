package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/model"
)

type nameReply struct {
	Name string `json:"name"`
}

type socialReply struct {
	XURL        string `json:"x_url"`
	LinkedInURL string `json:"linkedin_url"`
}

// IdentityQuery builds the X search used to find the decision-maker.
func IdentityQuery(person, company string) string {
	if person != "" && !strings.EqualFold(person, model.UnknownPerson) {
		return fmt.Sprintf(`site:x.com "%s" %s`, person, company)
	}
	return fmt.Sprintf("site:x.com %s official profile", company)
}

// Identify looks for the decision-maker and their social links. It never
// halts: failures degrade to an unnamed person carrying the site's own links.
// Links found on the site win over search-derived links field by field.
func (e *Enricher) Identify(ctx context.Context, company, content string, siteSocials model.Socials) Outcome[model.DecisionMaker] {
	log := zap.L().With(zap.String("company", company), zap.String("stage", "identify"))
	if siteSocials.Any() {
		log.Debug("enrich: socials found on site",
			zap.String("x_url", siteSocials.XURL),
			zap.String("linkedin_url", siteSocials.LinkedInURL),
		)
	}

	var errs []error

	person := model.UnknownPerson
	name, err := llm.CompleteJSON[nameReply](ctx, e.analyst, llm.Request{
		Stage: "identify",
		User:  nameExtractUser(company, truncate(content, e.identifyLimit)),
	})
	if err != nil {
		errs = append(errs, err)
		log.Warn("enrich: name extraction failed", zap.Error(err))
	} else if n := strings.TrimSpace(name.Name); n != "" {
		person = n
	}

	found, err := e.searchSocials(ctx, person, company)
	if err != nil {
		errs = append(errs, err)
		log.Warn("enrich: social search failed", zap.Error(err))
	}
	found = e.validate(ctx, NormalizeSocials(found))

	merged, source := MergeSocials(siteSocials, found)
	dm := model.DecisionMaker{
		FullName:    person,
		XURL:        merged.XURL,
		LinkedInURL: merged.LinkedInURL,
		Source:      source,
	}
	if len(errs) > 0 {
		return recovered(dm, errors.Join(errs...))
	}
	return succeeded(dm)
}

func (e *Enricher) searchSocials(ctx context.Context, person, company string) (model.Socials, error) {
	if e.searcher == nil {
		return model.Socials{}, nil
	}
	hits, err := e.searcher.Search(ctx, IdentityQuery(person, company), e.searchResults)
	if err != nil {
		return model.Socials{}, err
	}
	if len(hits) == 0 {
		return model.Socials{}, nil
	}

	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = h.URL + " - " + h.Snippet
	}
	reply, err := llm.CompleteJSON[socialReply](ctx, e.analyst, llm.Request{
		Stage: "identify",
		User:  socialExtractUser(person, company, lines),
	})
	if err != nil {
		return model.Socials{}, err
	}
	return model.Socials{XURL: reply.XURL, LinkedInURL: reply.LinkedInURL}, nil
}

func (e *Enricher) validate(ctx context.Context, s model.Socials) model.Socials {
	if e.validator == nil {
		return s
	}
	if s.XURL != "" && !e.validator.Alive(ctx, s.XURL) {
		s.XURL = ""
	}
	if s.LinkedInURL != "" && !e.validator.Alive(ctx, s.LinkedInURL) {
		s.LinkedInURL = ""
	}
	return s
}
