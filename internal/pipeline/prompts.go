package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/provider"
)

// MaxExclusions caps how many existing titles are listed in a discovery
// prompt.
const MaxExclusions = 50

const discoverySystem = `You research long-running public debates where people pick one of two sides.
Favor debates with a clear "A vs B" framing, broad recognition and ongoing disagreement.
Report what you find in plain prose. Include a source URL for each debate when you have one.`

const discoveryPrompt = `Find 5 to 10 current debates suitable for a public poll.
For each one give a short title, the question voters answer, the two sides and a category from: %s.

Do not repeat any of these existing debates:
%s`

const structuringSystem = `You convert research notes into strict JSON. Output only JSON, no commentary.`

const structuringPrompt = `Convert the debates described below into a JSON array. Each element must have:
  "title": short title,
  "question": the question voters answer,
  "variantA": the first side,
  "variantB": the second side,
  "category": one of %s,
  "sourceUrl": a URL from the notes, if any.
Skip anything that does not have two distinct sides.

Notes:
%s`

const combinedSystem = `You research long-running public debates and report them as strict JSON. Output only JSON.`

const combinedPrompt = `Find 5 to 10 current debates suitable for a public poll and return them as a JSON array.
Each element must have "title", "question", "variantA", "variantB", "category" (one of %s) and, when known, "sourceUrl".

Do not repeat any of these existing debates:
%s%s`

const combinedFindings = `

Earlier research notes you may reuse:
%s`

const enrichmentSystem = `You write balanced background for a two-sided public debate. Output a single JSON object only.
Each section is one plain-text string of two to four sentences. Never invent URLs.`

const enrichmentPrompt = `Debate: %s
Question: %s
Side A: %s
Side B: %s

Return a JSON object with these string fields:
  "currentState": where the debate stands today,
  "currentStateSource": a URL supporting currentState, taken from the evidence when possible,
  "scientificView": what research or experts say,
  "communityReaction": how the public and communities react,
  "history": how the debate started and evolved,
  "counterEvidence": the strongest evidence against the popular side,
  "counterEvidenceSource": a URL supporting counterEvidence, taken from the evidence when possible,
  "imagePrompt": a one-sentence prompt for an illustration, with no text in the image.%s`

const enrichmentEvidence = `

Evidence:
%s`

func exclusionList(titles []string) string {
	if len(titles) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, t := range titles {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(t)
	}
	return b.String()
}

func categoryList() string {
	return strings.Join(model.CategoryNames(), ", ")
}

func discoveryRequest(exclusions []string) provider.Request {
	return provider.Request{
		System: discoverySystem,
		Prompt: fmt.Sprintf(discoveryPrompt, categoryList(), exclusionList(exclusions)),
	}
}

func structuringRequest(raw string) provider.Request {
	return provider.Request{
		System: structuringSystem,
		Prompt: fmt.Sprintf(structuringPrompt, categoryList(), raw),
	}
}

func combinedRequest(exclusions []string, raw string) provider.Request {
	findings := ""
	if strings.TrimSpace(raw) != "" {
		findings = fmt.Sprintf(combinedFindings, raw)
	}
	return provider.Request{
		System: combinedSystem,
		Prompt: fmt.Sprintf(combinedPrompt, categoryList(), exclusionList(exclusions), findings),
	}
}

func enrichmentRequest(in EntryInput, evidence []model.SearchEvidence) provider.Request {
	return provider.Request{
		System: enrichmentSystem,
		Prompt: fmt.Sprintf(enrichmentPrompt, in.Title, in.Question, in.VariantA, in.VariantB, evidenceBlock(evidence)),
	}
}

func evidenceBlock(evidence []model.SearchEvidence) string {
	if len(evidence) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ev := range evidence {
		fmt.Fprintf(&b, "[%d] %s (%s)", i+1, ev.Title, ev.URL)
		if ev.PublishedDate != nil {
			fmt.Fprintf(&b, " published %s", ev.PublishedDate.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "\n%s\n", ev.Text)
	}
	return fmt.Sprintf(enrichmentEvidence, strings.TrimRight(b.String(), "\n"))
}

// capExclusions keeps the first limit non-blank titles.
func capExclusions(titles []string, limit int) []string {
	out := make([]string, 0, min(len(titles), limit))
	for _, t := range titles {
		if len(out) == limit {
			break
		}
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
