package analyzer

import (
	"fmt"
	"math"

	"github.com/vieagent/vieagent/pkg/types"
)

const (
	batchCountThreshold  = 10
	batchSizeThreshold   = 500 << 20 // 500MB
	sequentialThreshold  = 1 << 30   // 1GB
	adaptiveThreshold    = 50
	recommendCountLimit  = 100
	recommendMemoryLimit = 50 << 20 // 50MB
)

// AssessRisk runs three independent threshold checks; the overall level is the
// worst of the three. Only callable on a fully aggregated analysis.
func (a *Analyzer) AssessRisk(folder *types.FolderAnalysis) types.RiskAssessment {
	var (
		totalMemory  int64
		totalSeconds float64
	)
	for _, f := range folder.Files {
		totalMemory += f.EstimatedMemory
		totalSeconds += f.EstimatedSeconds
	}

	risk := types.RiskAssessment{
		Memory:      types.RISK_LEVEL_LOW,
		Performance: types.RISK_LEVEL_LOW,
		Storage:     types.RISK_LEVEL_LOW,
	}

	switch {
	case totalMemory > a.cfg.MemoryCeiling:
		risk.Memory = types.RISK_LEVEL_HIGH
	case float64(totalMemory) > float64(a.cfg.MemoryCeiling)*0.7:
		risk.Memory = types.RISK_LEVEL_MEDIUM
	}

	switch {
	case totalSeconds > a.cfg.PerformanceHighSeconds:
		risk.Performance = types.RISK_LEVEL_HIGH
	case totalSeconds > a.cfg.PerformanceMediumSeconds:
		risk.Performance = types.RISK_LEVEL_MEDIUM
	}

	if folder.TotalSize > a.cfg.StorageHighBytes {
		risk.Storage = types.RISK_LEVEL_HIGH
	}

	risk.Overall = risk.Memory.Max(risk.Performance).Max(risk.Storage)

	if risk.Memory >= types.RISK_LEVEL_MEDIUM {
		risk.Mitigations = append(risk.Mitigations, "enable streaming processing to bound peak memory")
	}
	if risk.Performance >= types.RISK_LEVEL_MEDIUM {
		risk.Mitigations = append(risk.Mitigations, "schedule indexing off-peak or raise worker parallelism")
	}
	if risk.Storage == types.RISK_LEVEL_HIGH {
		risk.Mitigations = append(risk.Mitigations, "split the upload into smaller folders")
	}

	return risk
}

// SelectBatchStrategy is deterministic: rules are checked in order and the
// first match wins.
func (a *Analyzer) SelectBatchStrategy(folder *types.FolderAnalysis) types.BatchStrategy {
	count := folder.SupportedFiles

	strategy := types.BatchStrategy{}
	switch {
	case count <= batchCountThreshold:
		strategy.BatchSize = count
		strategy.Mode = types.BATCH_MODE_COUNT
	case folder.TotalSize > batchSizeThreshold:
		// small batches bound peak memory on big uploads
		strategy.BatchSize = 5
		strategy.Mode = types.BATCH_MODE_SIZE
	default:
		strategy.BatchSize = int(math.Min(20, math.Ceil(float64(count)/5)))
		strategy.Mode = types.BATCH_MODE_HYBRID
	}

	switch {
	case folder.TotalSize > sequentialThreshold:
		strategy.Execution = types.EXECUTION_MODE_SEQUENTIAL
	case count > adaptiveThreshold:
		strategy.Execution = types.EXECUTION_MODE_ADAPTIVE
	default:
		strategy.Execution = types.EXECUTION_MODE_PARALLEL
	}

	if strategy.BatchSize > 0 {
		strategy.TotalBatches = int(math.Ceil(float64(count) / float64(strategy.BatchSize)))
	}

	var totalSeconds float64
	for _, f := range folder.Files {
		totalSeconds += f.EstimatedSeconds
	}
	par := strategy.Parallelism()
	if par < 1 {
		par = 1
	}
	strategy.EstimatedSeconds = totalSeconds / float64(par)

	return strategy
}

// Recommend produces advisory notes; they never block processing.
func (a *Analyzer) Recommend(folder *types.FolderAnalysis) []string {
	var recs []string

	if folder.TotalFiles > recommendCountLimit {
		recs = append(recs, fmt.Sprintf("folder contains %d files; expect a long initial indexing run", folder.TotalFiles))
	}
	if unsupported := folder.TotalFiles - folder.SupportedFiles; unsupported > 0 {
		recs = append(recs, fmt.Sprintf("%d files have unsupported formats and will be skipped; convert them to pdf, text, csv, json, markdown or docx", unsupported))
	}
	for _, f := range folder.Files {
		if f.EstimatedMemory > recommendMemoryLimit {
			recs = append(recs, "large files detected; consider splitting them before upload")
			break
		}
	}

	return recs
}
