package v1

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vieagent/vieagent/app/core"
	"github.com/vieagent/vieagent/app/core/srv"
	"github.com/vieagent/vieagent/app/store"
	"github.com/vieagent/vieagent/pkg/ai"
	"github.com/vieagent/vieagent/pkg/cache"
	"github.com/vieagent/vieagent/pkg/types"
	"github.com/vieagent/vieagent/pkg/utils"
)

// memStore backs the store interfaces with maps so logic tests run without a
// database.
type memStore struct {
	mu      sync.Mutex
	docs    map[string]*types.Document
	chunks  map[string][]types.DocumentChunk
	vectors map[string][]types.Vector
	retries map[string]int

	queryResults []types.VectorQueryResult
}

func newMemStore() *memStore {
	return &memStore{
		docs:    map[string]*types.Document{},
		chunks:  map[string][]types.DocumentChunk{},
		vectors: map[string][]types.Vector{},
		retries: map[string]int{},
	}
}

func key(collection, id string) string { return collection + ":" + id }

func (m *memStore) DocumentStore() store.DocumentStore           { return &memDocumentStore{m} }
func (m *memStore) DocumentChunkStore() store.DocumentChunkStore { return &memChunkStore{m} }
func (m *memStore) VectorStore() store.VectorStore               { return &memVectorStore{m} }
func (m *memStore) ModelPerformanceStore() store.ModelPerformanceStore {
	return &memPerformanceStore{m}
}

func (m *memStore) Transaction(ctx context.Context, next func(ctx context.Context) error) error {
	return next(ctx)
}

type memDocumentStore struct{ m *memStore }

func (s *memDocumentStore) GetTable(...interface{}) string { return "documents" }

func (s *memDocumentStore) Create(ctx context.Context, data types.Document) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d := data
	s.m.docs[key(data.Collection, data.ID)] = &d
	return nil
}

func (s *memDocumentStore) GetDocument(ctx context.Context, collection, id string) (*types.Document, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if d, ok := s.m.docs[key(collection, id)]; ok {
		out := *d
		return &out, nil
	}
	return nil, nil
}

func (s *memDocumentStore) GetByContentHash(ctx context.Context, collection, contentHash string) (*types.Document, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, d := range s.m.docs {
		if d.Collection == collection && d.ContentHash == contentHash {
			out := *d
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memDocumentStore) UpdateStage(ctx context.Context, collection, id string, stage types.DocumentStage) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if d, ok := s.m.docs[key(collection, id)]; ok {
		d.Stage = stage
	}
	return nil
}

func (s *memDocumentStore) IncrRetryTimes(ctx context.Context, collection, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.retries[key(collection, id)]++
	return nil
}

func (s *memDocumentStore) Delete(ctx context.Context, collection, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.docs, key(collection, id))
	return nil
}

func (s *memDocumentStore) DeleteAll(ctx context.Context, collection string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for k, d := range s.m.docs {
		if d.Collection == collection {
			delete(s.m.docs, k)
		}
	}
	return nil
}

func (s *memDocumentStore) ListDocuments(ctx context.Context, opts types.GetDocumentOptions, page, pageSize uint64) ([]*types.Document, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*types.Document
	for _, d := range s.m.docs {
		if opts.Collection != "" && d.Collection != opts.Collection {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	return out, nil
}

func (s *memDocumentStore) Total(ctx context.Context, opts types.GetDocumentOptions) (int64, error) {
	list, _ := s.ListDocuments(ctx, opts, 0, 0)
	return int64(len(list)), nil
}

type memChunkStore struct{ m *memStore }

func (s *memChunkStore) GetTable(...interface{}) string { return "document_chunks" }

func (s *memChunkStore) Create(ctx context.Context, data types.DocumentChunk) error {
	return s.BatchCreate(ctx, []*types.DocumentChunk{&data})
}

func (s *memChunkStore) BatchCreate(ctx context.Context, datas []*types.DocumentChunk) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, c := range datas {
		s.m.chunks[key(c.Collection, c.DocumentID)] = append(s.m.chunks[key(c.Collection, c.DocumentID)], *c)
	}
	return nil
}

func (s *memChunkStore) Get(ctx context.Context, collection, documentID, id string) (*types.DocumentChunk, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, c := range s.m.chunks[key(collection, documentID)] {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memChunkStore) List(ctx context.Context, collection, documentID string) ([]types.DocumentChunk, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return append([]types.DocumentChunk{}, s.m.chunks[key(collection, documentID)]...), nil
}

func (s *memChunkStore) BatchDelete(ctx context.Context, collection, documentID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.chunks, key(collection, documentID))
	return nil
}

func (s *memChunkStore) DeleteAll(ctx context.Context, collection string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for k := range s.m.chunks {
		if strings.HasPrefix(k, collection+":") {
			delete(s.m.chunks, k)
		}
	}
	return nil
}

type memVectorStore struct{ m *memStore }

func (s *memVectorStore) GetTable(...interface{}) string { return "vectors" }

func (s *memVectorStore) Create(ctx context.Context, data types.Vector) error {
	return s.BatchCreate(ctx, []types.Vector{data})
}

func (s *memVectorStore) BatchCreate(ctx context.Context, datas []types.Vector) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, v := range datas {
		s.m.vectors[key(v.Collection, v.DocumentID)] = append(s.m.vectors[key(v.Collection, v.DocumentID)], v)
	}
	return nil
}

func (s *memVectorStore) GetVector(ctx context.Context, collection, id string) (*types.Vector, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, list := range s.m.vectors {
		for _, v := range list {
			if v.Collection == collection && v.ID == id {
				out := v
				return &out, nil
			}
		}
	}
	return nil, nil
}

func (s *memVectorStore) Query(ctx context.Context, opts types.GetVectorsOptions, vectors pgvector.Vector, limit uint64) ([]types.VectorQueryResult, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return append([]types.VectorQueryResult{}, s.m.queryResults...), nil
}

func (s *memVectorStore) BatchDelete(ctx context.Context, collection, documentID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.vectors, key(collection, documentID))
	return nil
}

func (s *memVectorStore) DeleteAll(ctx context.Context, collection string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for k := range s.m.vectors {
		if strings.HasPrefix(k, collection+":") {
			delete(s.m.vectors, k)
		}
	}
	return nil
}

func (s *memVectorStore) Count(ctx context.Context, opts types.GetVectorsOptions) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, list := range s.m.vectors {
		for _, v := range list {
			if opts.Collection == "" || v.Collection == opts.Collection {
				n++
			}
		}
	}
	return n, nil
}

type memPerformanceStore struct{ m *memStore }

func (s *memPerformanceStore) GetTable(...interface{}) string { return "model_performance" }

func (s *memPerformanceStore) Create(ctx context.Context, data types.ModelPerformance) error {
	return nil
}

func (s *memPerformanceStore) List(ctx context.Context, opts types.GetModelPerformanceOptions, page, pageSize uint64) ([]types.ModelPerformance, error) {
	return nil, nil
}

func (s *memPerformanceStore) DeleteBefore(ctx context.Context, createdBefore int64) (int64, error) {
	return 0, nil
}

type stubEmbedder struct {
	mu            sync.Mutex
	queryCalls    int
	documentCalls int
}

func (e *stubEmbedder) embed(content []string) ai.EmbeddingResult {
	result := ai.EmbeddingResult{
		Model:  e.ModelName(),
		Data:   make([][]float32, len(content)),
		Errors: make([]error, len(content)),
	}
	for i, text := range content {
		result.Data[i] = []float32{float32(len(text)), 1}
	}
	return result
}

func (e *stubEmbedder) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	e.mu.Lock()
	e.queryCalls++
	e.mu.Unlock()
	return e.embed(content), nil
}

func (e *stubEmbedder) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	e.mu.Lock()
	e.documentCalls++
	e.mu.Unlock()
	return e.embed(content), nil
}

func (e *stubEmbedder) ModelName() string { return "stub-embedding" }

func newTestCore(ms *memStore, embedder ai.Embedder) *core.Core {
	return core.NewCore(
		core.CoreConfig{},
		ms,
		cache.NewMemoryCache(),
		srv.SetupSrvs(srv.ApplyEmbedder(embedder)),
	)
}

func TestIndexIsIdempotentByContentHash(t *testing.T) {
	ms := newMemStore()
	embedder := &stubEmbedder{}
	logic := NewKnowledgeLogic(context.Background(), newTestCore(ms, embedder))

	content := strings.Repeat("customer asked about the return policy for damaged goods. ", 5)

	first, err := logic.Index(&types.Document{Collection: "kb", Title: "returns", Content: content})
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, types.DOCUMENT_STAGE_COMPLETED, first.Stage)
	assert.Equal(t, 1, embedder.documentCalls)

	second, err := logic.Index(&types.Document{Collection: "kb", Title: "returns", Content: content})
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.DocumentID, second.DocumentID)

	// no second embedding run and no duplicate vectors
	assert.Equal(t, 1, embedder.documentCalls)
	count, err := ms.VectorStore().Count(context.Background(), types.GetVectorsOptions{Collection: "kb"})
	require.NoError(t, err)
	assert.Equal(t, int64(first.StoredChunks), count)
}

func TestIndexReembedsFailedDocument(t *testing.T) {
	ms := newMemStore()
	embedder := &stubEmbedder{}
	logic := NewKnowledgeLogic(context.Background(), newTestCore(ms, embedder))

	content := strings.Repeat("shipping times for international orders vary by carrier. ", 5)
	hash := utils.ContentHash([]byte(content))

	ctx := context.Background()
	require.NoError(t, ms.DocumentStore().Create(ctx, types.Document{
		ID:          "doc-1",
		Collection:  "kb",
		Content:     content,
		ContentHash: hash,
		Stage:       types.DOCUMENT_STAGE_FAILED,
	}))
	require.NoError(t, ms.DocumentChunkStore().Create(ctx, types.DocumentChunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		Collection: "kb",
		ChunkIndex: 0,
		Content:    content,
	}))

	// same content again after a transient outage re-embeds instead of skipping
	summary, err := logic.Index(&types.Document{Collection: "kb", Content: content})
	require.NoError(t, err)
	assert.False(t, summary.Skipped)
	assert.Equal(t, "doc-1", summary.DocumentID)
	assert.Equal(t, types.DOCUMENT_STAGE_COMPLETED, summary.Stage)
	assert.Equal(t, 1, embedder.documentCalls)
	assert.Equal(t, 1, ms.retries["kb:doc-1"])

	stored, err := ms.DocumentStore().GetDocument(ctx, "kb", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, types.DOCUMENT_STAGE_COMPLETED, stored.Stage)
}
