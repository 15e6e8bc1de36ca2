// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of characters per segment.
const DefaultChunkSize = 1500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 300

// separators are tried in order when looking for a cut point.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("? "),
	[]rune("! "),
	[]rune(" "),
}

// Processor splits page text into overlapping segments, preferring to cut at
// paragraph, line, sentence and word boundaries before falling back to a
// hard cut. Every segment is an exact substring of its page.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits every non-blank page into segments.
// Input segments are ignored; this processor creates new segments.
// Segment order follows page order, then position within the page.
func (p *Processor) Process(ctx context.Context, doc *domain.LoadedDocument, _ []domain.Segment) ([]domain.Segment, error) {
	var segments []domain.Segment

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		var pageNum *int
		if page.Number > 0 {
			pageNum = domain.IntPtr(page.Number)
		}

		text := []rune(page.Text)
		for _, s := range p.spans(text) {
			segments = append(segments, domain.Segment{
				Content: string(text[s.start:s.end]),
				Page:    pageNum,
				Offset:  s.start,
			})
		}
	}

	return segments, nil
}

// Split returns the segment texts for a single block of text.
func (p *Processor) Split(text string) []string {
	runes := []rune(text)
	spans := p.spans(runes)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = string(runes[s.start:s.end])
	}
	return out
}

type span struct {
	start, end int
}

// spans computes segment boundaries as rune offsets into text.
func (p *Processor) spans(text []rune) []span {
	n := len(text)
	var out []span

	start := 0
	for start < n {
		limit := start + p.chunkSize
		if limit >= n {
			out = append(out, span{start, n})
			break
		}

		end := p.cut(text, start, limit)
		out = append(out, span{start, end})
		start = p.nextStart(text, start, end)
	}

	return out
}

// cut finds the end of a segment starting at start and at most limit.
// Boundaries are only accepted in the second half of the window so that
// segments stay close to the configured size.
func (p *Processor) cut(text []rune, start, limit int) int {
	floor := start + p.chunkSize/2
	for _, sep := range separators {
		if i := lastIndex(text[floor:limit], sep); i >= 0 {
			return floor + i + len(sep)
		}
	}
	return limit
}

// nextStart steps back by the overlap from end, then forward to the
// start of the next word when there is one before end.
func (p *Processor) nextStart(text []rune, start, end int) int {
	next := end - p.overlap
	if next <= start {
		next = start + (end-start+1)/2
	}
	for i := next; i < end; i++ {
		if unicode.IsSpace(text[i-1]) && !unicode.IsSpace(text[i]) {
			return i
		}
	}
	return next
}

// lastIndex returns the index of the last occurrence of sep in s, or -1.
func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
