package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/vectorutil"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex over the segments table.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add upserts segments by chunk id in a single transaction.
func (v *vectorIndex) Add(ctx context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (chunk_id, source, content_hash, content, page, page_offset, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source = excluded.source,
			content_hash = excluded.content_hash,
			content = excluded.content,
			page = excluded.page,
			page_offset = excluded.page_offset,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range segments {
		seg := &segments[i]
		if seg.ChunkID == "" {
			return fmt.Errorf("%w: segment %d has no chunk id", domain.ErrInvalidInput, i)
		}
		if len(seg.Embedding) == 0 {
			return fmt.Errorf("%w: segment %s has no embedding", domain.ErrInvalidInput, seg.ChunkID)
		}

		var page sql.NullInt64
		if seg.Page != nil {
			page = sql.NullInt64{Int64: int64(*seg.Page), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			seg.ChunkID, seg.Source, seg.ContentHash, seg.Content,
			page, seg.Offset, float32SliceToBytes(seg.Embedding),
		); err != nil {
			return fmt.Errorf("inserting segment %s: %w", seg.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing segments: %w", err)
	}
	return nil
}

// Search loads the segments the filter admits and ranks them by cosine similarity.
func (v *vectorIndex) Search(
	ctx context.Context, query []float32, k int, filter *domain.RetrievalFilter,
) ([]domain.ScoredSegment, error) {
	if k <= 0 {
		return []domain.ScoredSegment{}, nil
	}
	if filter != nil && len(filter.Sources) == 0 {
		return []domain.ScoredSegment{}, nil
	}

	q := `SELECT chunk_id, source, content_hash, content, page, page_offset, embedding FROM segments`
	var args []any
	if filter != nil {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Sources)), ",")
		q += ` WHERE source IN (` + placeholders + `)`
		for _, s := range filter.Sources {
			args = append(args, s)
		}
	}
	q += ` ORDER BY rowid`

	rows, err := v.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Segment
	for rows.Next() {
		var (
			seg  domain.Segment
			page sql.NullInt64
			blob []byte
		)
		if err := rows.Scan(&seg.ChunkID, &seg.Source, &seg.ContentHash, &seg.Content,
			&page, &seg.Offset, &blob); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		if page.Valid {
			seg.Page = domain.IntPtr(int(page.Int64))
		}
		if seg.Embedding, err = bytesToFloat32Slice(blob); err != nil {
			return nil, fmt.Errorf("decoding segment %s: %w", seg.ChunkID, err)
		}
		candidates = append(candidates, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}

	return vectorutil.Rank(query, candidates, k), nil
}

// Sources returns the distinct source names in first-indexed order.
func (v *vectorIndex) Sources(ctx context.Context) ([]string, error) {
	rows, err := v.store.db.QueryContext(ctx,
		`SELECT source FROM segments GROUP BY source ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of stored segments.
func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting segments: %w", err)
	}
	return n, nil
}

// Close closes the underlying store.
func (v *vectorIndex) Close() error {
	return v.store.Close()
}
