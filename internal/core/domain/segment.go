package domain

// Page is a page-level text unit produced by a document loader.
type Page struct {
	// Text is the extracted page text.
	Text string

	// Number is the 1-based page number.
	Number int
}

// LoadedDocument is an uploaded document after loading, ready to be split
// into segments.
type LoadedDocument struct {
	// Name is the uploaded document name, used as the segment source.
	Name string

	// Fingerprint is the content fingerprint of the raw bytes.
	Fingerprint string

	// Pages holds the extracted pages in document order.
	Pages []Page
}

// Segment is a bounded chunk of document text with attached provenance.
// Segments are immutable once enriched and owned by the vector index
// after being added.
type Segment struct {
	// Content is the segment text.
	Content string

	// Source is the name of the document the segment came from.
	Source string

	// ContentHash is the fingerprint of the source document.
	ContentHash string

	// ChunkID is "<content_hash>-<ordinal>", unique and deterministic.
	ChunkID string

	// Page is the page number the segment came from, if known.
	Page *int

	// Offset is the rune offset of the segment within its page.
	Offset int

	// Embedding is the vector representation (populated when indexed).
	Embedding []float32
}

// DedupKey returns the key used to merge retrieval results.
// Falls back to source plus the first 200 runes of content when
// the segment has no chunk id.
func (s Segment) DedupKey() string {
	if s.ChunkID != "" {
		return s.ChunkID
	}
	content := []rune(s.Content)
	if len(content) > 200 {
		content = content[:200]
	}
	return s.Source + "::" + string(content)
}

// ScoredSegment is a segment returned by similarity search.
type ScoredSegment struct {
	Segment Segment

	// Score is the cosine similarity to the query (higher is closer).
	Score float64
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
