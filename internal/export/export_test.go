package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func acme() model.LeadRecord {
	return model.LeadRecord{
		Company:      "Acme Solar LLC",
		Person:       "Jane Doe",
		Website:      "https://acmesolar.com",
		EmailSubject: "acme quotes",
		EmailBody:    "Hi Jane, ACME's quote form is manual.",
		XURL:         "https://x.com/acmesolar",
		PainPoints:   []string{"Acme quotes by email", "no booking"},
		Hypothesis:   "Automate Acme intake",
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.LeadRecord{acme()}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"company", "person", "website", "email_subject", "email_body",
		"x_url", "linkedin_url", "pain_points", "hypothesis",
	}, rows[0])
	assert.Equal(t, "Acme Solar LLC", rows[1][0])
	assert.Equal(t, "Acme quotes by email; no booking", rows[1][7])
}

func TestWriteCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "company", rows[0][0])
}

func TestTargetID(t *testing.T) {
	assert.Equal(t, "Target-A", TargetID(0))
	assert.Equal(t, "Target-Z", TargetID(25))
	assert.Equal(t, "Target-AA", TargetID(26))
	assert.Equal(t, "Target-AB", TargetID(27))
}

func TestMask(t *testing.T) {
	orig := acme()
	got := Mask(orig, 1)

	assert.Equal(t, "Target-B", got.Company)
	assert.Equal(t, RedactedWebsite, got.Website)
	assert.Equal(t, "Target-B quotes", got.EmailSubject)
	assert.Equal(t, "Hi Jane, Target-B's quote form is manual.", got.EmailBody)
	assert.Equal(t, "https://x.com/Target-Bsolar", got.XURL)
	assert.Equal(t, []string{"Target-B quotes by email", "no booking"}, got.PainPoints)
	assert.Equal(t, "Automate Target-B intake", got.Hypothesis)

	// the input is untouched
	assert.Equal(t, "Acme quotes by email", orig.PainPoints[0])
}

func TestMask_ShortOrUnknownNameOnlyReplacesHeaders(t *testing.T) {
	rec := model.LeadRecord{Company: "AB", EmailBody: "ab ab", Website: "https://ab.com"}
	got := Mask(rec, 0)
	assert.Equal(t, "Target-A", got.Company)
	assert.Equal(t, "ab ab", got.EmailBody)
	assert.Equal(t, RedactedWebsite, got.Website)

	rec = model.LeadRecord{Company: model.UnknownCompany, EmailBody: "Unknown sender"}
	assert.Equal(t, "Unknown sender", Mask(rec, 0).EmailBody)
}

func TestMaskAll(t *testing.T) {
	got := MaskAll([]model.LeadRecord{acme(), {Company: "Bright Energy", EmailBody: "bright idea"}})
	require.Len(t, got, 2)
	assert.Equal(t, "Target-A", got[0].Company)
	assert.Equal(t, "Target-B idea", got[1].EmailBody)
}
