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
		provider.stores.ModelPerformanceStore = NewModelPerformanceStore(provider)
	})
}

type ModelPerformanceStore struct {
	CommonFields
}

func NewModelPerformanceStore(provider SqlProviderAchieve) *ModelPerformanceStore {
	repo := &ModelPerformanceStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MODEL_PERFORMANCE)
	repo.SetAllColumns("id", "model_id", "latency_ms", "cost", "quality_score", "failed", "created_at")
	return repo
}

// Create is insert-only; performance records are never updated in place.
func (s *ModelPerformanceStore) Create(ctx context.Context, data types.ModelPerformance) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ModelID, data.LatencyMs, data.Cost, data.QualityScore, data.Failed, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	if _, err = s.GetMaster(ctx).Exec(queryString, args...); err != nil {
		return err
	}
	return nil
}

func (s *ModelPerformanceStore) List(ctx context.Context, opts types.GetModelPerformanceOptions, page, pageSize uint64) ([]types.ModelPerformance, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC")
	if page != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ModelPerformance
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ModelPerformanceStore) DeleteBefore(ctx context.Context, createdBefore int64) (int64, error) {
	query := sq.Delete(s.GetTable()).Where(sq.Lt{"created_at": createdBefore})

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	result, err := s.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
