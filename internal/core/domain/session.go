package domain

import (
	"slices"
	"sync"
)

// Role identifies who authored a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session conversation.
type Turn struct {
	Role Role
	Text string
}

// Conversation is the ordered sequence of turns in one session.
// It is only ever appended to.
type Conversation struct {
	turns []Turn
}

// Append records a question and its answer.
func (c *Conversation) Append(question, answer string) {
	c.turns = append(c.turns,
		Turn{Role: RoleUser, Text: question},
		Turn{Role: RoleAssistant, Text: answer},
	)
}

// Turns returns a copy of all turns.
func (c *Conversation) Turns() []Turn {
	return slices.Clone(c.turns)
}

// Last returns a copy of the final n turns.
func (c *Conversation) Last(n int) []Turn {
	if n <= 0 {
		return nil
	}
	start := len(c.turns) - n
	if start < 0 {
		start = 0
	}
	return slices.Clone(c.turns[start:])
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// DocumentRegistry is the ordered list of distinct document names
// indexed or confirmed already indexed during a session.
type DocumentRegistry struct {
	names []string
}

// Add appends name if it is not already registered.
// Returns true if the name was added.
func (r *DocumentRegistry) Add(name string) bool {
	if r.Contains(name) {
		return false
	}
	r.names = append(r.names, name)
	return true
}

// Contains reports whether name is registered.
func (r *DocumentRegistry) Contains(name string) bool {
	return slices.Contains(r.names, name)
}

// Names returns a copy of the registered names in registration order.
func (r *DocumentRegistry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of registered documents.
func (r *DocumentRegistry) Len() int {
	return len(r.names)
}

// FingerprintSet is a set of content fingerprints.
type FingerprintSet map[string]struct{}

// NewFingerprintSet creates a set holding the given fingerprints.
func NewFingerprintSet(fingerprints ...string) FingerprintSet {
	s := make(FingerprintSet, len(fingerprints))
	for _, fp := range fingerprints {
		s[fp] = struct{}{}
	}
	return s
}

// Has reports whether fp is in the set.
func (s FingerprintSet) Has(fp string) bool {
	_, ok := s[fp]
	return ok
}

// Add inserts fp into the set.
func (s FingerprintSet) Add(fp string) {
	s[fp] = struct{}{}
}

// Len returns the number of fingerprints.
func (s FingerprintSet) Len() int {
	return len(s)
}

// Clone returns an independent copy, used as the read-only snapshot
// handed to ingestion workers.
func (s FingerprintSet) Clone() FingerprintSet {
	out := make(FingerprintSet, len(s))
	for fp := range s {
		out[fp] = struct{}{}
	}
	return out
}

// Sorted returns the fingerprints in lexical order.
func (s FingerprintSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for fp := range s {
		out = append(out, fp)
	}
	slices.Sort(out)
	return out
}

// Session is the explicit per-session context passed to ingestion and
// answering. Nothing outside a Session holds conversation or registry state.
type Session struct {
	// ID identifies the session in logs.
	ID string

	// Conversation is the question and answer history.
	Conversation *Conversation

	// Registry lists documents available for scope selection.
	Registry *DocumentRegistry

	// Processed holds fingerprints already indexed. Only the orchestrating
	// goroutine mutates it, after each ingestion batch.
	Processed FingerprintSet

	// Selection is the current document scope selection.
	Selection []string

	// mu serialises questions and batch reconciliation within the session.
	mu sync.Mutex
}

// NewSession creates a session seeded with a previously persisted processed set.
func NewSession(id string, processed FingerprintSet) *Session {
	if processed == nil {
		processed = NewFingerprintSet()
	}
	return &Session{
		ID:           id,
		Conversation: &Conversation{},
		Registry:     &DocumentRegistry{},
		Processed:    processed,
	}
}

// Lock acquires the session for one question or one batch reconciliation.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Documents returns the registered document names. It waits for any
// question or reconciliation in progress.
func (s *Session) Documents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Registry.Names()
}
