package pipeline

// State is a step of a pipeline run.
type State string

const (
	StateIdle               State = "idle"
	StateDiscovering        State = "discovering"
	StateStructuring        State = "structuring"
	StateRetrievingEvidence State = "retrieving_evidence"
	StateGenerating         State = "generating"
	StateValidated          State = "validated"
	StateFailed             State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateValidated || s == StateFailed
}

// Observer is called on every state transition of a run.
type Observer func(State)
