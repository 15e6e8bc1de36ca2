package domain

// ChainState is a state of the history-aware retrieval chain.
type ChainState int

// Chain states, in the order a question moves through them.
const (
	StateAwaitingQuestion ChainState = iota
	StateReformulating
	StateRetrieving
	StateGenerating
)

// String returns the string representation of the state.
func (s ChainState) String() string {
	switch s {
	case StateAwaitingQuestion:
		return "awaiting_question"
	case StateReformulating:
		return "reformulating"
	case StateRetrieving:
		return "retrieving"
	case StateGenerating:
		return "generating"
	default:
		return unknownDescription
	}
}

// Answer is the terminal output of the answering flow.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Question is the question as the user asked it.
	Question string

	// StandaloneQuestion is the reformulated question used for retrieval.
	StandaloneQuestion string

	// Sources are the segments actually retrieved and used as context.
	Sources []Segment
}

// SourceNames returns the distinct source names of the answer's segments
// in first-seen order.
func (a *Answer) SourceNames() []string {
	seen := make(map[string]struct{}, len(a.Sources))
	names := make([]string, 0, len(a.Sources))
	for i := range a.Sources {
		name := a.Sources[i].Source
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
