package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultParaphrases is the number of paraphrases requested when none is configured.
const DefaultParaphrases = 4

// MultiQueryRetriever expands a question into paraphrases, searches for
// each, and merges the results without duplicates.
type MultiQueryRetriever struct {
	store     *VectorStore
	llm       driven.LLMService
	prompts   driven.PromptStore
	n         int
	kPerQuery int
	filter    *domain.RetrievalFilter
}

// NewMultiQueryRetriever creates a multi-query retriever.
func NewMultiQueryRetriever(
	store *VectorStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	n, kPerQuery int,
	filter *domain.RetrievalFilter,
) *MultiQueryRetriever {
	if n <= 0 {
		n = DefaultParaphrases
	}
	return &MultiQueryRetriever{
		store:     store,
		llm:       llm,
		prompts:   prompts,
		n:         n,
		kPerQuery: kPerQuery,
		filter:    filter,
	}
}

// Expand asks the completion service for up to n paraphrases of question.
// A completion failure is returned wrapped with domain.ErrLLMUnavailable.
// An empty completion yields no paraphrases.
func (r *MultiQueryRetriever) Expand(ctx context.Context, question string) ([]string, error) {
	prompt := renderMultiQuery(loadPrompt(r.prompts, driven.PromptMultiQuery), question, r.n)

	text, err := r.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.7})
	if err != nil {
		return nil, fmt.Errorf("%w: paraphrase: %w", domain.ErrLLMUnavailable, err)
	}

	paraphrases := ParseParaphrases(text, r.n)
	if len(paraphrases) == 0 {
		logger.Warn("No paraphrases generated, using original question only")
	}
	return paraphrases, nil
}

// Retrieve searches with the original question and each paraphrase,
// truncates every result set to kPerQuery, and merges them by dedup key
// in first-seen order across queries in generation order.
func (r *MultiQueryRetriever) Retrieve(ctx context.Context, question string) ([]domain.Segment, error) {
	logger.Section("Multi-Query Retrieval")

	paraphrases, err := r.Expand(ctx, question)
	if err != nil {
		return nil, err
	}
	queries := append([]string{question}, paraphrases...)
	logger.Debug("Queries: %q", queries)

	results := make([][]domain.ScoredSegment, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			results[i], errs[i] = r.store.Search(ctx, q, r.kPerQuery, r.filter)
		}(i, q)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return MergeUnique(results, r.kPerQuery), nil
}

// MergeUnique flattens per-query results, keeping at most kPerQuery from
// each and the first occurrence of every dedup key.
func MergeUnique(results [][]domain.ScoredSegment, kPerQuery int) []domain.Segment {
	seen := make(map[string]struct{})
	var merged []domain.Segment

	for _, hits := range results {
		if kPerQuery > 0 && len(hits) > kPerQuery {
			hits = hits[:kPerQuery]
		}
		for i := range hits {
			key := hits[i].Segment.DedupKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, hits[i].Segment)
		}
	}

	return merged
}

// ParseParaphrases splits a completion into at most n paraphrases, one per
// non-empty line. A single run-on line is split after sentence punctuation
// followed by whitespace, so abbreviations such as "U.S." stay whole.
func ParseParaphrases(text string, n int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 1 {
		if parts := splitSentences(lines[0]); len(parts) > 1 {
			lines = parts
		}
	}

	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

// splitSentences cuts text after '.', '?' or '!' when whitespace follows.
// The punctuation stays with its sentence. A period closing an initialism
// ("U.S.", "e.g.") or followed by a lowercase word is not a boundary.
func splitSentences(text string) []string {
	var parts []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && (endsInitialism(runes[start:i]) || nextWordLower(runes[i+1:])) {
			continue
		}
		if p := strings.TrimSpace(string(runes[start : i+1])); p != "" {
			parts = append(parts, p)
		}
		start = i + 1
	}
	if p := strings.TrimSpace(string(runes[start:])); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// endsInitialism reports whether the last word of text, which precedes a
// period, is a single letter or already dotted.
func endsInitialism(text []rune) bool {
	begin := len(text)
	for begin > 0 && !unicode.IsSpace(text[begin-1]) {
		begin--
	}
	word := text[begin:]
	if len(word) == 1 && unicode.IsLetter(word[0]) {
		return true
	}
	return len(word) > 1 && strings.ContainsRune(string(word), '.')
}

func nextWordLower(text []rune) bool {
	for _, r := range text {
		if !unicode.IsSpace(r) {
			return unicode.IsLower(r)
		}
	}
	return false
}
