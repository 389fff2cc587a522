package process

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vieagent/vieagent/pkg/parser"
	"github.com/vieagent/vieagent/pkg/safe"
	"github.com/vieagent/vieagent/pkg/types"
)

// IndexFunc indexes a single document.
type IndexFunc func(ctx context.Context, doc *types.Document) (*types.IndexSummary, error)

// BatchResult aggregates the per-document outcomes of one batch run.
type BatchResult struct {
	JobID        string                `json:"job_id"`
	Summaries    []*types.IndexSummary `json:"summaries"`
	Indexed      int                   `json:"indexed"`
	Skipped      int                   `json:"skipped"`
	Failed       int                   `json:"failed"`
	Errors       []string              `json:"errors,omitempty"`
	ParseSummary *parser.ParseSummary  `json:"parse_summary,omitempty"`
}

// BatchIndexer runs documents through an IndexFunc with the fan-out the batch
// strategy allows. Batches run in order; documents inside a batch run
// concurrently up to the strategy's parallelism.
type BatchIndexer struct {
	strategy types.BatchStrategy
}

func NewBatchIndexer(strategy types.BatchStrategy) *BatchIndexer {
	return &BatchIndexer{strategy: strategy}
}

func (b *BatchIndexer) Run(ctx context.Context, docs []*types.Document, index IndexFunc) *BatchResult {
	result := &BatchResult{JobID: uuid.NewString()}

	batchSize := b.strategy.BatchSize
	if batchSize <= 0 {
		batchSize = len(docs)
	}
	parallelism := b.strategy.Parallelism()
	if parallelism < 1 {
		parallelism = 1
	}

	slog.Info("batch indexing started",
		slog.String("job_id", result.JobID),
		slog.Int("documents", len(docs)),
		slog.Int("batch_size", batchSize),
		slog.Int("parallelism", parallelism),
		slog.String("mode", string(b.strategy.Mode)),
		slog.String("execution", string(b.strategy.Execution)))

	var mu sync.Mutex

	for start := 0; start < len(docs); start += batchSize {
		if ctx.Err() != nil {
			mu.Lock()
			result.Errors = append(result.Errors, ctx.Err().Error())
			mu.Unlock()
			break
		}

		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		jobs := make(chan *types.Document)
		var wg sync.WaitGroup

		for i := 0; i < parallelism; i++ {
			wg.Add(1)
			go safe.Run(func() {
				defer wg.Done()
				for doc := range jobs {
					summary, err := index(ctx, doc)

					mu.Lock()
					if summary != nil {
						result.Summaries = append(result.Summaries, summary)
					}
					switch {
					case err != nil:
						result.Failed++
						result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", doc.ID, err))
					case summary.Skipped:
						result.Skipped++
					default:
						result.Indexed++
					}
					mu.Unlock()
				}
			})
		}

		for _, doc := range batch {
			jobs <- doc
		}
		close(jobs)
		wg.Wait()
	}

	slog.Info("batch indexing finished",
		slog.String("job_id", result.JobID),
		slog.Int("indexed", result.Indexed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed))

	return result
}
