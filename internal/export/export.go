// Package export renders stored leads as CSV and as privacy-masked reports.
package export

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// RedactedWebsite replaces every website in a masked report.
const RedactedWebsite = "https://[REDACTED].com/"

// Row is one CSV line. Pain points are joined with "; ".
type Row struct {
	Company      string `csv:"company"`
	Person       string `csv:"person"`
	Website      string `csv:"website"`
	EmailSubject string `csv:"email_subject"`
	EmailBody    string `csv:"email_body"`
	XURL         string `csv:"x_url"`
	LinkedInURL  string `csv:"linkedin_url"`
	PainPoints   string `csv:"pain_points"`
	Hypothesis   string `csv:"hypothesis"`
}

func toRow(r model.LeadRecord) Row {
	return Row{
		Company:      r.Company,
		Person:       r.Person,
		Website:      r.Website,
		EmailSubject: r.EmailSubject,
		EmailBody:    r.EmailBody,
		XURL:         r.XURL,
		LinkedInURL:  r.LinkedInURL,
		PainPoints:   strings.Join(r.PainPoints, "; "),
		Hypothesis:   r.Hypothesis,
	}
}

// WriteCSV writes recs with a header row. An empty slice still gets the
// header.
func WriteCSV(w io.Writer, recs []model.LeadRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(Row{}); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	for _, r := range recs {
		if err := enc.Encode(toRow(r)); err != nil {
			return eris.Wrapf(err, "export: csv row %s", r.Website)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// TargetID names the i-th masked company: Target-A ... Target-Z,
// Target-AA and so on.
func TargetID(i int) string {
	var b []byte
	for n := i; n >= 0; n = n/26 - 1 {
		b = append([]byte{byte('A' + n%26)}, b...)
	}
	return "Target-" + string(b)
}

// Mask anonymizes one record. The company becomes TargetID(index), the
// website is redacted, and the first word of the real company name is
// replaced case-insensitively in every text field.
func Mask(rec model.LeadRecord, index int) model.LeadRecord {
	id := TargetID(index)
	realName := strings.TrimSpace(rec.Company)

	out := rec
	out.Company = id
	out.Website = RedactedWebsite
	out.PainPoints = append([]string(nil), rec.PainPoints...)

	if len([]rune(realName)) <= 2 || strings.EqualFold(realName, model.UnknownCompany) {
		return out
	}
	mainName := strings.Fields(realName)[0]
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(mainName))
	sub := func(s string) string { return pattern.ReplaceAllLiteralString(s, id) }

	out.Person = sub(out.Person)
	out.EmailSubject = sub(out.EmailSubject)
	out.EmailBody = sub(out.EmailBody)
	out.XURL = sub(out.XURL)
	out.LinkedInURL = sub(out.LinkedInURL)
	out.Hypothesis = sub(out.Hypothesis)
	for i, p := range out.PainPoints {
		out.PainPoints[i] = sub(p)
	}
	return out
}

// MaskAll masks every record, numbering targets in order.
func MaskAll(recs []model.LeadRecord) []model.LeadRecord {
	out := make([]model.LeadRecord, len(recs))
	for i, r := range recs {
		out[i] = Mask(r, i)
	}
	return out
}
