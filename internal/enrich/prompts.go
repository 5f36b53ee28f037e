package enrich

import (
	"fmt"
	"strings"
)

const qualifySystemPrompt = `You are a lead qualification analyst. Decide whether the website below belongs to ONE real business that sells services, and if so find ONE high-friction manual process we could automate for it.

TECHNICAL SIGNALS DETECTED ON PAGE:
%s

QUALIFICATION RULES:
1. A directory, "Top 10" list, blog, marketplace or portal is NOT qualified.
2. A single business selling its own services is qualified.

PAIN POINT RULES:
1. If "Has Generic Contact Form" is detected, the primary pain point is manual data entry from contact forms into the CRM.
2. If "Manual Scheduling Friction" is detected, the primary pain point is back-and-forth email to book meetings.
3. Otherwise look for a client portal (manual onboarding) or careers page (resume filtering).
4. Be specific. Never answer "operational inefficiency".

Respond with a JSON object:
{
  "is_qualified_business": true or false,
  "reason_for_disqualification": "only when false",
  "company_name": "exact business name",
  "core_business": "one sentence",
  "operational_pain_points": ["primary pain point", "secondary pain point"],
  "automation_hypothesis": "one sentence pitching automation for the primary pain point"
}`

func qualifySystem(signals []Signal) string {
	return fmt.Sprintf(qualifySystemPrompt, signalList(signals))
}

const nameExtractPrompt = `Analyze the website text of %s and find the founder, owner or CEO.
Respond with a JSON object {"name": "Full Name"}. Use "Unknown" when no person is named.

Text:
%s`

func nameExtractUser(company, content string) string {
	return fmt.Sprintf(nameExtractPrompt, company, content)
}

const socialExtractPrompt = `Find the X (Twitter) profile URL and the LinkedIn profile URL for %s at %s in the search results below.
Only use URLs that appear in the results. Respond with a JSON object {"x_url": "", "linkedin_url": ""} using empty strings for anything not found.

Results:
%s`

func socialExtractUser(person, company string, hits []string) string {
	return fmt.Sprintf(socialExtractPrompt, person, company, strings.Join(hits, "\n"))
}

const draftPrompt = `You are a B2B copywriter. Write a cold email that reads like it was sent by a busy consultant, not a marketing tool.

PROSPECT:
Company: %[1]s
Name: %[2]s
Pain points: %[3]s
Hypothesis: %[4]s
Site signals: %[5]s

SUBJECT LINE
Pick one formula and fill it in:
1. "%[1]s + [process]"
2. "question re: [pain point]"
3. "idea for %[1]s"
4. "[pain point] at %[1]s"
Rules: all lowercase, at most 4 words, no words like "opportunity", "partnership" or "services".

BODY
Pick the ONE template that best fits the pain points. Adapt wording to the pain points but keep the structure and tone. Skip any placeholder you have no context for.

[Template A: manual data entry or forms]
Hi %[2]s,

Noticed you're capturing leads via the site but likely handling the CRM entry manually.

We built an agent that automates that handoff entirely, no human data entry needed.

Mind if I send over a 30-second video showing how it works?

Best,
%[6]s

[Template B: scheduling or response speed]
Hi %[2]s,

I was testing your inquiry flow and noticed there's no instant booking option. In your industry, speed usually dictates conversion.

We deploy 24/7 AI agents that qualify and book these leads instantly, so you stop losing deals to lag time.

Open to seeing a quick demo?

Best,
%[6]s

[Template C: hiring or general scaling]
Hi %[2]s,

I've been following %[1]s and noticed the team is growing.

Usually at this stage admin, triage and scheduling start eating into strategy time. We build custom AI employees to take that work off your plate.

Would you be opposed to seeing how we helped a similar team automate this?

Best,
%[6]s

Respond with a JSON object {"subject": "...", "body": "..."}.`

func draftUser(in DraftRequest, greeting, sender string) string {
	return fmt.Sprintf(draftPrompt,
		in.Company,
		greeting,
		strings.Join(in.PainPoints, ", "),
		in.Hypothesis,
		signalList(in.Signals),
		sender,
	)
}
