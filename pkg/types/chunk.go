package types

import (
	sq "github.com/Masterminds/squirrel"
)

// DocumentChunk is a fixed-size overlapping slice of a document's content, the
// unit of embedding and retrieval. Chunks are never mutated; the owning
// document's deletion invalidates them.
type DocumentChunk struct {
	ID         string `json:"id" db:"id"`
	DocumentID string `json:"document_id" db:"document_id"`
	Collection string `json:"collection" db:"collection"`
	ChunkIndex int    `json:"chunk_index" db:"chunk_index"`
	Content    string `json:"content" db:"content"`
	CharOffset int    `json:"char_offset" db:"char_offset"`
	Overlap    int    `json:"overlap" db:"overlap"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}

type GetDocumentChunkOptions struct {
	ID         string
	DocumentID string
	Collection string
}

func (opts GetDocumentChunkOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Eq{"document_id": opts.DocumentID})
	}
	if opts.Collection != "" {
		*query = query.Where(sq.Eq{"collection": opts.Collection})
	}
}
