package enrich

import "strings"

// Signal is a technical trait of a site that hints at a manual process.
type Signal string

const (
	SignalContactForm      Signal = "Has Generic Contact Form (Risk: Manual CRM Entry)"
	SignalManualScheduling Signal = "Manual Scheduling Friction (No Auto-Booking detected)"
	SignalHiring           Signal = "Active Hiring (Growing Pains)"
)

// DetectSignals scans page content for the keyword triggers behind the three
// email archetypes. Order is stable.
func DetectSignals(content string) []Signal {
	lower := strings.ToLower(content)
	var out []Signal

	if containsAny(lower, "contact us", "send message", "get in touch") {
		out = append(out, SignalContactForm)
	}
	if containsAny(lower, "book a call", "schedule") && !containsAny(lower, "calendly", "hubspot") {
		out = append(out, SignalManualScheduling)
	}
	if containsAny(lower, "careers", "we are hiring", "join the team") {
		out = append(out, SignalHiring)
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func signalList(signals []Signal) string {
	if len(signals) == 0 {
		return "No obvious technical triggers found."
	}
	parts := make([]string, len(signals))
	for i, s := range signals {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
