package v1

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/vieagent/vieagent/app/core"
	"github.com/vieagent/vieagent/app/logic/v1/process"
	"github.com/vieagent/vieagent/pkg/analyzer"
	"github.com/vieagent/vieagent/pkg/errors"
	"github.com/vieagent/vieagent/pkg/parser"
	"github.com/vieagent/vieagent/pkg/types"
)

type IngestLogic struct {
	ctx      context.Context
	core     *core.Core
	parsers  *parser.Registry
	analyzer *analyzer.Analyzer
}

func NewIngestLogic(ctx context.Context, core *core.Core) *IngestLogic {
	return &IngestLogic{
		ctx:  ctx,
		core: core,
		parsers: parser.NewRegistry(
			parser.NewChatExportParser(parser.DefaultRoleClassifier),
			parser.NewTextParser(types.SOURCE_TYPE_TEXT),
			parser.NewTextParser(types.SOURCE_TYPE_MARKDOWN),
		),
		analyzer: analyzer.New(analyzer.DefaultConfig()),
	}
}

// Analyze scans a folder and reports size, type breakdown, risk and the batch
// strategy ingestion would use, without touching any external service.
func (l *IngestLogic) Analyze(path string) (*types.FolderAnalysis, error) {
	result, err := l.analyzer.AnalyzeFolder(l.ctx, path)
	if err != nil {
		return nil, errors.New("IngestLogic.Analyze.AnalyzeFolder", "folder analysis failed", err)
	}
	return result, nil
}

// Ingest parses one raw input and indexes every resulting document.
func (l *IngestLogic) Ingest(input parser.RawInput) ([]*types.IndexSummary, *parser.ParseSummary, error) {
	p, err := l.parsers.Get(input.SourceType)
	if err != nil {
		return nil, nil, errors.New("IngestLogic.Ingest.Registry.Get", err.Error(), err).Code(http.StatusBadRequest)
	}

	docs, parseSummary, err := p.Parse(l.ctx, input)
	if err != nil {
		return nil, parseSummary, errors.New("IngestLogic.Ingest.Parse", "parse failed", err)
	}
	if parseSummary.Recovered > 0 {
		l.core.Metrics().ParseRecoveryInc(string(input.SourceType))
	}

	knowledge := NewKnowledgeLogic(l.ctx, l.core)

	var summaries []*types.IndexSummary
	for _, doc := range docs {
		summary, err := knowledge.Index(doc)
		if err != nil {
			return summaries, parseSummary, errors.Trace("IngestLogic.Ingest", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, parseSummary, nil
}

// IngestFolder analyzes a chat export folder, derives the batch strategy, and
// indexes the parsed documents with the strategy's bounded parallelism. When
// Redis is configured the shared ingest semaphore guards embedding quota.
func (l *IngestLogic) IngestFolder(path, collection string) (*process.BatchResult, *types.FolderAnalysis, error) {
	analysis, err := l.Analyze(path)
	if err != nil {
		return nil, nil, errors.Trace("IngestLogic.IngestFolder", err)
	}
	if analysis.SupportedFiles == 0 {
		return nil, analysis, errors.New("IngestLogic.IngestFolder.NoSupportedFiles", "folder contains no supported files", nil).Code(http.StatusBadRequest)
	}

	if l.core.Redis() != nil {
		sem := core.NewSemaphoreManager(l.core).Ingest()
		if !sem.TryAcquire() {
			return nil, analysis, errors.New("IngestLogic.IngestFolder.Semaphore", "too many concurrent ingestions, try again later", nil).Code(http.StatusTooManyRequests)
		}
		defer sem.Release()
	}

	input := parser.RawInput{
		SourceType: types.SOURCE_TYPE_CHAT_EXPORT,
		Collection: collection,
	}
	for _, file := range analysis.Files {
		if !file.IsSupported {
			continue
		}
		input.Files = append(input.Files, parser.ExportFile{
			TempPath:     file.Path,
			OriginalPath: relOrSelf(path, file.Path),
		})
	}

	p, err := l.parsers.Get(types.SOURCE_TYPE_CHAT_EXPORT)
	if err != nil {
		return nil, analysis, errors.New("IngestLogic.IngestFolder.Registry.Get", err.Error(), err)
	}

	docs, parseSummary, err := p.Parse(l.ctx, input)
	if err != nil {
		return nil, analysis, errors.New("IngestLogic.IngestFolder.Parse", "parse failed", err)
	}
	if parseSummary.Recovered > 0 {
		l.core.Metrics().ParseRecoveryInc(string(types.SOURCE_TYPE_CHAT_EXPORT))
	}

	timer := l.core.Metrics().BatchTimer(string(analysis.Strategy.Mode))
	defer timer.ObserveDuration()

	knowledge := NewKnowledgeLogic(l.ctx, l.core)
	batch := process.NewBatchIndexer(analysis.Strategy)
	result := batch.Run(l.ctx, docs, func(ctx context.Context, doc *types.Document) (*types.IndexSummary, error) {
		return knowledge.Index(doc)
	})
	result.ParseSummary = parseSummary

	return result, analysis, nil
}

func relOrSelf(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
