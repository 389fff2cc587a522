package v1

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/vieagent/vieagent/app/core"
	"github.com/vieagent/vieagent/pkg/chunker"
	"github.com/vieagent/vieagent/pkg/errors"
	"github.com/vieagent/vieagent/pkg/types"
	"github.com/vieagent/vieagent/pkg/utils"
)

type KnowledgeLogic struct {
	ctx     context.Context
	core    *core.Core
	chunker *chunker.Chunker
}

func NewKnowledgeLogic(ctx context.Context, core *core.Core) *KnowledgeLogic {
	c := chunker.NewDefault()
	cfg := core.Cfg().Chunker
	if cfg.Size > 0 {
		var err error
		if c, err = chunker.New(cfg.Size, cfg.Overlap); err != nil {
			panic(err)
		}
	}

	return &KnowledgeLogic{
		ctx:     ctx,
		core:    core,
		chunker: c,
	}
}

// Index runs one document through chunking, embedding and storage. Re-indexing
// content that already exists in the collection is a no-op reported as Skipped.
func (l *KnowledgeLogic) Index(doc *types.Document) (*types.IndexSummary, error) {
	timer := l.core.Metrics().IndexTimer(doc.Collection)
	defer timer.ObserveDuration()

	if doc.ContentHash == "" {
		doc.ContentHash = utils.ContentHash([]byte(doc.Content))
	}

	existing, err := l.core.Store().DocumentStore().GetByContentHash(l.ctx, doc.Collection, doc.ContentHash)
	if err != nil {
		return nil, errors.New("KnowledgeLogic.Index.DocumentStore.GetByContentHash", "internal error", err)
	}
	if existing != nil {
		// a failed document with the same content gets re-embedded instead
		// of being reported as a duplicate
		if existing.Stage == types.DOCUMENT_STAGE_FAILED {
			slog.Info("re-indexing previously failed document",
				slog.String("collection", doc.Collection),
				slog.String("document_id", existing.ID),
				slog.String("content_hash", doc.ContentHash))
			return l.Retry(doc.Collection, existing.ID)
		}

		slog.Info("document already indexed, skipping",
			slog.String("collection", doc.Collection),
			slog.String("document_id", existing.ID),
			slog.String("content_hash", doc.ContentHash))
		return &types.IndexSummary{
			DocumentID: existing.ID,
			Stage:      existing.Stage,
			Skipped:    true,
		}, nil
	}

	if doc.ID == "" {
		doc.ID = utils.GenUniqIDStr()
	}
	doc.Stage = types.DOCUMENT_STAGE_PENDING

	chunks, err := l.chunker.Split(doc)
	if err != nil {
		return nil, errors.New("KnowledgeLogic.Index.Chunker.Split", "invalid content", err).Code(http.StatusBadRequest)
	}

	summary := &types.IndexSummary{
		DocumentID:  doc.ID,
		TotalChunks: len(chunks),
	}

	if err = l.core.Store().DocumentStore().Create(l.ctx, *doc); err != nil {
		return nil, errors.New("KnowledgeLogic.Index.DocumentStore.Create", "internal error", err)
	}

	if err = l.core.Store().DocumentStore().UpdateStage(l.ctx, doc.Collection, doc.ID, types.DOCUMENT_STAGE_PROCESSING); err != nil {
		return nil, errors.New("KnowledgeLogic.Index.DocumentStore.UpdateStage", "internal error", err)
	}

	for _, chunk := range chunks {
		chunk.ID = utils.GenUniqIDStr()
	}
	if err = l.core.Store().DocumentChunkStore().BatchCreate(l.ctx, chunks); err != nil {
		l.failDocument(doc, summary, err)
		return summary, errors.New("KnowledgeLogic.Index.DocumentChunkStore.BatchCreate", "internal error", err)
	}

	stage, err := l.embedAndStore(doc, chunks, summary)
	if err != nil {
		l.failDocument(doc, summary, err)
		return summary, errors.Trace("KnowledgeLogic.Index", err)
	}

	if err = l.core.Store().DocumentStore().UpdateStage(l.ctx, doc.Collection, doc.ID, stage); err != nil {
		return summary, errors.New("KnowledgeLogic.Index.DocumentStore.UpdateStage.final", "internal error", err)
	}
	summary.Stage = stage

	l.core.Metrics().DocumentIndexedInc(doc.Collection, stage.String())
	l.core.Metrics().ChunksStoredAdd(doc.Collection, summary.StoredChunks)

	slog.Info("document indexed",
		slog.String("collection", doc.Collection),
		slog.String("document_id", doc.ID),
		slog.String("stage", stage.String()),
		slog.Int("total_chunks", summary.TotalChunks),
		slog.Int("stored_chunks", summary.StoredChunks),
		slog.Int("failed_chunks", summary.FailedChunks))

	return summary, nil
}

// embedAndStore embeds every chunk and persists the vectors that succeeded.
// Chunk order is preserved end to end: vector rows keep the chunk's index even
// when earlier chunks failed.
func (l *KnowledgeLogic) embedAndStore(doc *types.Document, chunks []*types.DocumentChunk, summary *types.IndexSummary) (types.DocumentStage, error) {
	embedder := l.core.Srv().AI().Embedder()

	timer := l.core.Metrics().EmbeddingTimer(embedder.ModelName())
	result, err := embedder.EmbeddingForDocument(l.ctx, doc.Title, lo.Map(chunks, func(item *types.DocumentChunk, _ int) string {
		return item.Content
	}))
	timer.ObserveDuration()
	if err != nil {
		return types.DOCUMENT_STAGE_FAILED, errors.New("KnowledgeLogic.embedAndStore.EmbeddingForDocument", "embedding failed", err)
	}

	var vectors []types.Vector
	for i, chunk := range chunks {
		if i < len(result.Errors) && result.Errors[i] != nil {
			summary.FailedChunks++
			summary.Errors = append(summary.Errors, fmt.Sprintf("chunk %d: %v", chunk.ChunkIndex, result.Errors[i]))
			continue
		}
		if i >= len(result.Data) || result.Data[i] == nil {
			summary.FailedChunks++
			summary.Errors = append(summary.Errors, fmt.Sprintf("chunk %d: empty embedding", chunk.ChunkIndex))
			continue
		}

		vectors = append(vectors, types.Vector{
			ID:             chunk.ID,
			DocumentID:     doc.ID,
			Collection:     doc.Collection,
			ChunkIndex:     chunk.ChunkIndex,
			Embedding:      pgvector.NewVector(result.Data[i]),
			EmbeddingModel: result.Model,
			OriginalLength: len([]rune(chunk.Content)),
		})
	}

	if len(vectors) == 0 {
		return types.DOCUMENT_STAGE_FAILED, errors.New("KnowledgeLogic.embedAndStore.NoVectors", "all chunks failed to embed", nil)
	}

	if err = l.core.Store().VectorStore().BatchCreate(l.ctx, vectors); err != nil {
		return types.DOCUMENT_STAGE_FAILED, errors.New("KnowledgeLogic.embedAndStore.VectorStore.BatchCreate", "internal error", err)
	}
	summary.StoredChunks = len(vectors)

	if summary.FailedChunks > 0 {
		return types.DOCUMENT_STAGE_WARNING, nil
	}
	return types.DOCUMENT_STAGE_COMPLETED, nil
}

func (l *KnowledgeLogic) failDocument(doc *types.Document, summary *types.IndexSummary, cause error) {
	summary.Stage = types.DOCUMENT_STAGE_FAILED
	summary.Errors = append(summary.Errors, cause.Error())
	if err := l.core.Store().DocumentStore().UpdateStage(l.ctx, doc.Collection, doc.ID, types.DOCUMENT_STAGE_FAILED); err != nil {
		slog.Error("Failed to mark document failed",
			slog.String("collection", doc.Collection),
			slog.String("document_id", doc.ID),
			slog.Any("error", err))
	}
	l.core.Metrics().DocumentIndexedInc(doc.Collection, types.DOCUMENT_STAGE_FAILED.String())
}

// Retry re-runs embedding for a failed document using its stored chunks.
func (l *KnowledgeLogic) Retry(collection, id string) (*types.IndexSummary, error) {
	doc, err := l.GetDocument(collection, id)
	if err != nil {
		return nil, errors.Trace("KnowledgeLogic.Retry", err)
	}

	if doc.Stage != types.DOCUMENT_STAGE_FAILED && doc.Stage != types.DOCUMENT_STAGE_WARNING {
		return nil, errors.New("KnowledgeLogic.Retry.InvalidStage", "document is not retryable", nil).Code(http.StatusBadRequest)
	}

	chunks, err := l.core.Store().DocumentChunkStore().List(l.ctx, collection, id)
	if err != nil {
		return nil, errors.New("KnowledgeLogic.Retry.DocumentChunkStore.List", "internal error", err)
	}
	if len(chunks) == 0 {
		return nil, errors.New("KnowledgeLogic.Retry.NoChunks", "document has no stored chunks", nil)
	}

	if err = l.core.Store().VectorStore().BatchDelete(l.ctx, collection, id); err != nil {
		return nil, errors.New("KnowledgeLogic.Retry.VectorStore.BatchDelete", "internal error", err)
	}

	if err = l.core.Store().DocumentStore().IncrRetryTimes(l.ctx, collection, id); err != nil {
		return nil, errors.New("KnowledgeLogic.Retry.DocumentStore.IncrRetryTimes", "internal error", err)
	}

	summary := &types.IndexSummary{
		DocumentID:  id,
		TotalChunks: len(chunks),
	}

	chunkPtrs := lo.Map(chunks, func(item types.DocumentChunk, _ int) *types.DocumentChunk {
		c := item
		return &c
	})

	stage, err := l.embedAndStore(doc, chunkPtrs, summary)
	if err != nil {
		l.failDocument(doc, summary, err)
		return summary, errors.Trace("KnowledgeLogic.Retry", err)
	}

	if err = l.core.Store().DocumentStore().UpdateStage(l.ctx, collection, id, stage); err != nil {
		return summary, errors.New("KnowledgeLogic.Retry.DocumentStore.UpdateStage", "internal error", err)
	}
	summary.Stage = stage
	return summary, nil
}

func (l *KnowledgeLogic) GetDocument(collection, id string) (*types.Document, error) {
	data, err := l.core.Store().DocumentStore().GetDocument(l.ctx, collection, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("KnowledgeLogic.GetDocument.DocumentStore.GetDocument", "internal error", err)
	}

	if data == nil || err == sql.ErrNoRows {
		return nil, errors.New("KnowledgeLogic.GetDocument.DocumentStore.GetDocument.nil", "not found", err).Code(http.StatusNotFound)
	}

	return data, nil
}

func (l *KnowledgeLogic) ListDocuments(opts types.GetDocumentOptions, page, pageSize uint64) ([]*types.Document, int64, error) {
	list, err := l.core.Store().DocumentStore().ListDocuments(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("KnowledgeLogic.ListDocuments.DocumentStore.ListDocuments", "internal error", err)
	}

	total, err := l.core.Store().DocumentStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("KnowledgeLogic.ListDocuments.DocumentStore.Total", "internal error", err)
	}

	return list, total, nil
}

// Delete removes the document and everything derived from it in one
// transaction so retrieval never sees orphaned chunks or vectors.
func (l *KnowledgeLogic) Delete(collection, id string) error {
	doc, err := l.core.Store().DocumentStore().GetDocument(l.ctx, collection, id)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("KnowledgeLogic.Delete.DocumentStore.GetDocument", "internal error", err)
	}
	if doc == nil {
		return nil
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().DocumentStore().Delete(ctx, collection, id); err != nil {
			return errors.New("KnowledgeLogic.Delete.DocumentStore.Delete", "internal error", err)
		}

		if err := l.core.Store().DocumentChunkStore().BatchDelete(ctx, collection, id); err != nil {
			return errors.New("KnowledgeLogic.Delete.DocumentChunkStore.BatchDelete", "internal error", err)
		}

		if err := l.core.Store().VectorStore().BatchDelete(ctx, collection, id); err != nil {
			return errors.New("KnowledgeLogic.Delete.VectorStore.BatchDelete", "internal error", err)
		}

		return nil
	})
}

// DeleteCollection wipes every record under the collection.
func (l *KnowledgeLogic) DeleteCollection(collection string) error {
	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().VectorStore().DeleteAll(ctx, collection); err != nil {
			return errors.New("KnowledgeLogic.DeleteCollection.VectorStore.DeleteAll", "internal error", err)
		}
		if err := l.core.Store().DocumentChunkStore().DeleteAll(ctx, collection); err != nil {
			return errors.New("KnowledgeLogic.DeleteCollection.DocumentChunkStore.DeleteAll", "internal error", err)
		}
		if err := l.core.Store().DocumentStore().DeleteAll(ctx, collection); err != nil {
			return errors.New("KnowledgeLogic.DeleteCollection.DocumentStore.DeleteAll", "internal error", err)
		}
		return nil
	})
}

// CollectionStats reports document and vector counts for operators.
func (l *KnowledgeLogic) CollectionStats(collection string) (map[string]int64, error) {
	docs, err := l.core.Store().DocumentStore().Total(l.ctx, types.GetDocumentOptions{Collection: collection})
	if err != nil {
		return nil, errors.New("KnowledgeLogic.CollectionStats.DocumentStore.Total", "internal error", err)
	}

	vectors, err := l.core.Store().VectorStore().Count(l.ctx, types.GetVectorsOptions{Collection: collection})
	if err != nil {
		return nil, errors.New("KnowledgeLogic.CollectionStats.VectorStore.Count", "internal error", err)
	}

	return map[string]int64{
		"documents": docs,
		"vectors":   vectors,
	}, nil
}
