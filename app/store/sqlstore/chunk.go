package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/vieagent/vieagent/pkg/register"
	"github.com/vieagent/vieagent/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DocumentChunkStore = NewDocumentChunkStore(provider)
	})
}

type DocumentChunkStore struct {
	CommonFields
}

func NewDocumentChunkStore(provider SqlProviderAchieve) *DocumentChunkStore {
	repo := &DocumentChunkStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_DOCUMENT_CHUNKS)
	repo.SetAllColumns("id", "document_id", "collection", "chunk_index", "content", "char_offset", "overlap", "created_at", "updated_at")
	return repo
}

func (s *DocumentChunkStore) Create(ctx context.Context, data types.DocumentChunk) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.DocumentID, data.Collection, data.ChunkIndex, data.Content, data.CharOffset, data.Overlap, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	if _, err = s.GetMaster(ctx).Exec(queryString, args...); err != nil {
		return err
	}
	return nil
}

func (s *DocumentChunkStore) BatchCreate(ctx context.Context, datas []*types.DocumentChunk) error {
	if len(datas) == 0 {
		return nil
	}

	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)

	for _, item := range datas {
		if item.CreatedAt == 0 {
			item.CreatedAt = time.Now().Unix()
		}
		if item.UpdatedAt == 0 {
			item.UpdatedAt = time.Now().Unix()
		}
		query = query.Values(item.ID, item.DocumentID, item.Collection, item.ChunkIndex, item.Content, item.CharOffset, item.Overlap, item.CreatedAt, item.UpdatedAt)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentChunkStore) Get(ctx context.Context, collection, documentID, id string) (*types.DocumentChunk, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"collection": collection, "document_id": documentID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.DocumentChunk
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// List keeps the original chunking order so transcripts can be reassembled.
func (s *DocumentChunkStore) List(ctx context.Context, collection, documentID string) ([]types.DocumentChunk, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"collection": collection, "document_id": documentID}).
		OrderBy("chunk_index ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.DocumentChunk
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *DocumentChunkStore) BatchDelete(ctx context.Context, collection, documentID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"collection": collection, "document_id": documentID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentChunkStore) DeleteAll(ctx context.Context, collection string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"collection": collection})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
