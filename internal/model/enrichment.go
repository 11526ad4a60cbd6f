package model

// Section names one generated text section of an EnrichmentRecord.
type Section string

const (
	SectionCurrentState      Section = "currentState"
	SectionScientificView    Section = "scientificView"
	SectionCommunityReaction Section = "communityReaction"
	SectionHistory           Section = "history"
	SectionCounterEvidence   Section = "counterEvidence"
)

// Sections lists the generated sections in display order.
var Sections = []Section{
	SectionCurrentState,
	SectionScientificView,
	SectionCommunityReaction,
	SectionHistory,
	SectionCounterEvidence,
}

// EnrichmentRecord is the generated supporting content for one catalog entry.
// Every section is a single string and both citation fields are always set.
type EnrichmentRecord struct {
	CurrentState      string `json:"currentState" yaml:"current_state"`
	ScientificView    string `json:"scientificView" yaml:"scientific_view"`
	CommunityReaction string `json:"communityReaction" yaml:"community_reaction"`
	History           string `json:"history" yaml:"history"`
	CounterEvidence   string `json:"counterEvidence" yaml:"counter_evidence"`

	CurrentStateSource    string `json:"currentStateSource" yaml:"current_state_source"`
	CounterEvidenceSource string `json:"counterEvidenceSource" yaml:"counter_evidence_source"`

	// ImagePrompt is a free-text prompt for an external image generator.
	ImagePrompt string `json:"imagePrompt,omitempty" yaml:"image_prompt,omitempty"`
}

// Get returns the text of the named section.
func (r EnrichmentRecord) Get(s Section) string {
	switch s {
	case SectionCurrentState:
		return r.CurrentState
	case SectionScientificView:
		return r.ScientificView
	case SectionCommunityReaction:
		return r.CommunityReaction
	case SectionHistory:
		return r.History
	case SectionCounterEvidence:
		return r.CounterEvidence
	default:
		return ""
	}
}

// Set assigns the text of the named section. Unknown sections are ignored.
func (r *EnrichmentRecord) Set(s Section, text string) {
	switch s {
	case SectionCurrentState:
		r.CurrentState = text
	case SectionScientificView:
		r.ScientificView = text
	case SectionCommunityReaction:
		r.CommunityReaction = text
	case SectionHistory:
		r.History = text
	case SectionCounterEvidence:
		r.CounterEvidence = text
	}
}

// Empty reports whether no section carries any text.
func (r EnrichmentRecord) Empty() bool {
	for _, s := range Sections {
		if r.Get(s) != "" {
			return false
		}
	}
	return true
}
