// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerReceived carries the outcome of one question back to the model.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// IngestProgress is sent each time a document in a batch finishes.
type IngestProgress struct {
	Done   int
	Total  int
	Result domain.IngestResult
}

// IngestCompleted carries the outcome of an ingestion batch.
type IngestCompleted struct {
	Results []domain.IngestResult
	Summary domain.BatchSummary
	Err     error
}

// WatchBatch carries a batch ingested by a directory watcher running
// alongside the chat.
type WatchBatch struct {
	Results []domain.IngestResult
	Summary domain.BatchSummary
	Err     error
}

// ChainStateChanged reports the answering flow moving to a new state.
type ChainStateChanged struct {
	State domain.ChainState
}

// ErrorOccurred is sent when an error needs to be displayed.
type ErrorOccurred struct {
	Err error
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the transcript and prompt.
	ViewChat ViewType = iota
	// ViewScope is the document scope picker.
	ViewScope
	// ViewHelp is the keybindings and commands overlay.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewScope:
		return "scope"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}
