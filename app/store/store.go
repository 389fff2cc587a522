package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/vieagent/vieagent/pkg/sqlstore"
	"github.com/vieagent/vieagent/pkg/types"
)

// DocumentStore persists normalized documents produced by the parsers.
type DocumentStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Document) error
	GetDocument(ctx context.Context, collection, id string) (*types.Document, error)
	// GetByContentHash backs the indexing idempotency check.
	GetByContentHash(ctx context.Context, collection, contentHash string) (*types.Document, error)
	UpdateStage(ctx context.Context, collection, id string, stage types.DocumentStage) error
	IncrRetryTimes(ctx context.Context, collection, id string) error
	Delete(ctx context.Context, collection, id string) error
	DeleteAll(ctx context.Context, collection string) error
	ListDocuments(ctx context.Context, opts types.GetDocumentOptions, page, pageSize uint64) ([]*types.Document, error)
	Total(ctx context.Context, opts types.GetDocumentOptions) (int64, error)
}

// DocumentChunkStore persists the ordered chunks of each document.
type DocumentChunkStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.DocumentChunk) error
	BatchCreate(ctx context.Context, datas []*types.DocumentChunk) error
	Get(ctx context.Context, collection, documentID, id string) (*types.DocumentChunk, error)
	// List returns the document's chunks ordered by chunk_index ascending.
	List(ctx context.Context, collection, documentID string) ([]types.DocumentChunk, error)
	BatchDelete(ctx context.Context, collection, documentID string) error
	DeleteAll(ctx context.Context, collection string) error
}

// VectorStore persists chunk embeddings and answers similarity queries.
type VectorStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Vector) error
	BatchCreate(ctx context.Context, datas []types.Vector) error
	GetVector(ctx context.Context, collection, id string) (*types.Vector, error)
	// Query returns the closest vectors by cosine similarity, best first.
	Query(ctx context.Context, opts types.GetVectorsOptions, vectors pgvector.Vector, limit uint64) ([]types.VectorQueryResult, error)
	BatchDelete(ctx context.Context, collection, documentID string) error
	DeleteAll(ctx context.Context, collection string) error
	Count(ctx context.Context, opts types.GetVectorsOptions) (int64, error)
}

// ModelPerformanceStore keeps the durable trail behind the model selector.
type ModelPerformanceStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ModelPerformance) error
	List(ctx context.Context, opts types.GetModelPerformanceOptions, page, pageSize uint64) ([]types.ModelPerformance, error)
	// DeleteBefore implements retention sweeps.
	DeleteBefore(ctx context.Context, createdBefore int64) (int64, error)
}

type Store interface {
	DocumentStore() DocumentStore
	DocumentChunkStore() DocumentChunkStore
	VectorStore() VectorStore
	ModelPerformanceStore() ModelPerformanceStore
	Transaction(ctx context.Context, next func(ctx context.Context) error) error
}
