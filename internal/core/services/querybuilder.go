package services

import (
	"slices"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// BuildFilter translates a scope selection into a retrieval filter.
//
//   - empty selection: nil (the caller picks a default)
//   - selection containing domain.AllFiles: every registered document
//   - otherwise: exactly the selected documents
func BuildFilter(selection, registry []string) *domain.RetrievalFilter {
	if len(selection) == 0 {
		return nil
	}
	if slices.Contains(selection, domain.AllFiles) {
		return domain.NewSourceFilter(registry...)
	}
	return domain.NewSourceFilter(selection...)
}
