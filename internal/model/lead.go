// Package model defines the lead, stage and event types shared by the
// outreach pipeline.
package model

import "strings"

// UnknownPerson is the placeholder name used when no decision-maker could be
// identified.
const UnknownPerson = "Unknown"

// UnknownCompany names a candidate whose search hit had no title.
const UnknownCompany = "Unknown"

// Candidate is a discovered lead before enrichment.
type Candidate struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Socials holds the X and LinkedIn profile URLs known for a company or person.
// Empty strings mean "not found".
type Socials struct {
	XURL        string `json:"x_url"`
	LinkedInURL string `json:"linkedin_url"`
}

// Any reports whether at least one social link is present.
func (s Socials) Any() bool {
	return s.XURL != "" || s.LinkedInURL != ""
}

// ScrapedSite is the raw content extracted for one candidate.
type ScrapedSite struct {
	MainContent      string  `json:"main_content"`
	SecondaryContent string  `json:"secondary_content,omitempty"`
	SecondaryURL     string  `json:"secondary_url,omitempty"`
	FoundSocials     Socials `json:"found_socials"`
}

// Combined joins the main and secondary content the way the identify step
// consumes it.
func (s ScrapedSite) Combined() string {
	return s.MainContent + "\n" + s.SecondaryContent
}

// BusinessProfile is the LLM qualification result for a scraped site.
type BusinessProfile struct {
	IsQualified            bool     `json:"is_qualified"`
	CompanyName            string   `json:"company_name"`
	CoreBusiness           string   `json:"core_business"`
	PainPoints             []string `json:"pain_points"`
	AutomationHypothesis   string   `json:"automation_hypothesis"`
	DisqualificationReason string   `json:"disqualification_reason,omitempty"`
}

// IdentitySource records where the decision-maker's social links came from.
type IdentitySource string

const (
	SourceFooter IdentitySource = "footer"
	SourceSearch IdentitySource = "search"
)

// DecisionMaker is the result of the identity hunt.
type DecisionMaker struct {
	FullName    string         `json:"full_name"`
	XURL        string         `json:"x_url"`
	LinkedInURL string         `json:"linkedin_url"`
	Source      IdentitySource `json:"source"`
}

// Named reports whether a concrete person was identified.
func (d DecisionMaker) Named() bool {
	name := strings.TrimSpace(d.FullName)
	return name != "" && !strings.EqualFold(name, UnknownPerson)
}

// Socials returns the decision-maker's links as a Socials value.
func (d DecisionMaker) Socials() Socials {
	return Socials{XURL: d.XURL, LinkedInURL: d.LinkedInURL}
}

// ErrorSubject marks a draft that could not be generated.
const ErrorSubject = "Error"

// EmailDraft is a generated cold email.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Failed reports whether the draft is the error sentinel.
func (d EmailDraft) Failed() bool {
	return d.Subject == ErrorSubject
}

// LeadRecord is the finalized, persisted unit of a campaign. Its JSON shape
// is the on-disk results format.
type LeadRecord struct {
	Company      string   `json:"company"`
	Person       string   `json:"person"`
	Website      string   `json:"website"`
	EmailSubject string   `json:"email_subject"`
	EmailBody    string   `json:"email_body"`
	XURL         string   `json:"x_url"`
	LinkedInURL  string   `json:"linkedin_url"`
	PainPoints   []string `json:"pain_points"`
	Hypothesis   string   `json:"hypothesis"`
}

// NewLeadRecord assembles a LeadRecord from the outputs of each stage.
func NewLeadRecord(sourceURL string, profile BusinessProfile, dm DecisionMaker, draft EmailDraft) LeadRecord {
	person := dm.FullName
	if strings.TrimSpace(person) == "" {
		person = UnknownPerson
	}
	pains := profile.PainPoints
	if pains == nil {
		pains = []string{}
	}
	return LeadRecord{
		Company:      profile.CompanyName,
		Person:       person,
		Website:      sourceURL,
		EmailSubject: draft.Subject,
		EmailBody:    draft.Body,
		XURL:         dm.XURL,
		LinkedInURL:  dm.LinkedInURL,
		PainPoints:   pains,
		Hypothesis:   profile.AutomationHypothesis,
	}
}

// HasSocials reports whether the record carries at least one social link.
func (r LeadRecord) HasSocials() bool {
	return r.XURL != "" || r.LinkedInURL != ""
}
