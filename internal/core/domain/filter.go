package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// AllFiles is the scope selection sentinel meaning every known document.
const AllFiles = "All files"

// RetrievalFilter restricts similarity search to segments whose source
// is one of Sources. A nil filter matches every segment.
type RetrievalFilter struct {
	Sources []string
}

// NewSourceFilter creates a filter matching exactly the given sources.
func NewSourceFilter(sources ...string) *RetrievalFilter {
	return &RetrievalFilter{Sources: slices.Clone(sources)}
}

// Matches reports whether a segment with the given source passes the filter.
func (f *RetrievalFilter) Matches(source string) bool {
	if f == nil {
		return true
	}
	return slices.Contains(f.Sources, source)
}

type filterIn struct {
	In []string `json:"in"`
}

type filterWire struct {
	Source *filterIn `json:"source"`
}

// MarshalJSON encodes the filter as {"source":{"in":[...]}}.
func (f RetrievalFilter) MarshalJSON() ([]byte, error) {
	in := f.Sources
	if in == nil {
		in = []string{}
	}
	return json.Marshal(filterWire{Source: &filterIn{In: in}})
}

// UnmarshalJSON decodes the {"source":{"in":[...]}} wire shape.
func (f *RetrievalFilter) UnmarshalJSON(data []byte) error {
	var w filterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Source == nil {
		return fmt.Errorf("%w: filter must constrain source", ErrInvalidInput)
	}
	f.Sources = w.Source.In
	return nil
}
