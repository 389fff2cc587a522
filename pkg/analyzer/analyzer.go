package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vieagent/vieagent/pkg/types"
	"github.com/vieagent/vieagent/pkg/utils"
)

// Config carries the analyzer's thresholds as named, overridable values. The
// defaults come from production experience, not from first principles; tune
// them per deployment.
type Config struct {
	MaxFileSize int64 `toml:"max_file_size"`
	// ProcessingSpeed is the assumed indexing throughput in bytes/second.
	ProcessingSpeed int64 `toml:"processing_speed"`
	MemoryCeiling   int64 `toml:"memory_ceiling"`
	// Risk thresholds
	PerformanceHighSeconds   float64 `toml:"performance_high_seconds"`
	PerformanceMediumSeconds float64 `toml:"performance_medium_seconds"`
	StorageHighBytes         int64   `toml:"storage_high_bytes"`
}

func DefaultConfig() Config {
	return Config{
		MaxFileSize:              100 << 20,  // 100MB
		ProcessingSpeed:          50 << 10,   // 50KB/s
		MemoryCeiling:            512 << 20,  // 512MB
		PerformanceHighSeconds:   3600,
		PerformanceMediumSeconds: 600,
		StorageHighBytes:         1 << 30, // 1GB
	}
}

var supportedMimeTypes = map[string]string{
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".json":     "application/json",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var extraMimeTypes = map[string]string{
	".html": "text/html",
	".xml":  "application/xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".zip":  "application/zip",
}

// Analyzer inspects upload folders before indexing: per-file support checks,
// cost estimates and an aggregate risk/batch plan.
type Analyzer struct {
	cfg Config
}

func New(cfg Config) *Analyzer {
	if cfg.MaxFileSize == 0 {
		cfg = DefaultConfig()
	}
	return &Analyzer{cfg: cfg}
}

func (a *Analyzer) Config() Config {
	return a.cfg
}

// AnalyzeFolder recursively walks path and aggregates every leaf file.
// Unsupported or unreadable files are recorded, never abort the scan.
func (a *Analyzer) AnalyzeFolder(ctx context.Context, path string) (*types.FolderAnalysis, error) {
	result := &types.FolderAnalysis{
		Path:        path,
		CountByType: make(map[string]int),
	}

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("skipping file without stat info", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}

		fa := a.AnalyzeFile(p, info.Size())
		result.Files = append(result.Files, fa)
		result.TotalFiles++
		result.TotalSize += fa.Size
		result.CountByType[fa.Extension]++
		if fa.IsSupported {
			result.SupportedFiles++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk folder %s, %w", path, err)
	}

	result.Risk = a.AssessRisk(result)
	result.Strategy = a.SelectBatchStrategy(result)
	result.Recommendations = a.Recommend(result)

	return result, nil
}

// AnalyzeFile is computed once per file; the record is read-only afterward.
func (a *Analyzer) AnalyzeFile(path string, size int64) *types.FileAnalysis {
	ext := strings.ToLower(filepath.Ext(path))

	fa := &types.FileAnalysis{
		Name:             filepath.Base(path),
		Path:             path,
		Size:             size,
		Extension:        ext,
		EstimatedSeconds: float64(size) / float64(a.cfg.ProcessingSpeed),
		EstimatedMemory:  a.estimateMemory(size),
	}

	mime, supported := supportedMimeTypes[ext]
	if !supported {
		if m, known := extraMimeTypes[ext]; known {
			mime = m
		} else {
			mime = "application/octet-stream"
		}
	}
	fa.MimeType = mime

	switch {
	case !supported:
		fa.FailureReason = fmt.Sprintf("unsupported file type %q", ext)
	case size > a.cfg.MaxFileSize:
		fa.FailureReason = fmt.Sprintf("file exceeds the %dMB limit", a.cfg.MaxFileSize>>20)
	default:
		fa.IsSupported = true
		if raw, err := os.ReadFile(path); err == nil {
			fa.ContentHash = utils.ContentHash(raw)
		} else {
			fa.IsSupported = false
			fa.FailureReason = fmt.Sprintf("unreadable: %v", err)
		}
	}

	return fa
}

// estimateMemory caps the per-file estimate at a tenth of the ceiling so one
// huge file cannot dominate the aggregate.
func (a *Analyzer) estimateMemory(size int64) int64 {
	est := size * 2
	limit := a.cfg.MemoryCeiling / 10
	if est > limit {
		return limit
	}
	return est
}
