package types

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// Vector stores one chunk's embedding inside a named collection. Written once,
// never patched in place; re-embedding produces a new record.
type Vector struct {
	ID             string          `json:"id" db:"id"` // equals the chunk id
	DocumentID     string          `json:"document_id" db:"document_id"`
	Collection     string          `json:"collection" db:"collection"`
	ChunkIndex     int             `json:"chunk_index" db:"chunk_index"`
	Embedding      pgvector.Vector `json:"embedding" db:"embedding"`
	EmbeddingModel string          `json:"embedding_model" db:"embedding_model"`
	OriginalLength int             `json:"original_length" db:"original_length"`
	CreatedAt      int64           `json:"created_at" db:"created_at"`
	UpdatedAt      int64           `json:"updated_at" db:"updated_at"`
}

type VectorQueryResult struct {
	ID             string  `json:"id" db:"id"`
	DocumentID     string  `json:"document_id" db:"document_id"`
	ChunkIndex     int     `json:"chunk_index" db:"chunk_index"`
	Cos            float32 `json:"cos" db:"cos"`
	OriginalLength int     `json:"original_length" db:"original_length"`
}

type GetVectorsOptions struct {
	ID         string
	Collection string
	DocumentID string
	Model      string
}

func (opts GetVectorsOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if opts.Collection != "" {
		*query = query.Where(sq.Eq{"collection": opts.Collection})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Eq{"document_id": opts.DocumentID})
	}
	if opts.Model != "" {
		*query = query.Where(sq.Eq{"embedding_model": opts.Model})
	}
}
