package types

import "fmt"

type RiskLevel int8

const (
	RISK_LEVEL_LOW    RiskLevel = 1
	RISK_LEVEL_MEDIUM RiskLevel = 2
	RISK_LEVEL_HIGH   RiskLevel = 3
)

var namesForRiskLevel = map[RiskLevel]string{
	RISK_LEVEL_LOW:    "low",
	RISK_LEVEL_MEDIUM: "medium",
	RISK_LEVEL_HIGH:   "high",
}

func (v RiskLevel) String() string {
	if n, ok := namesForRiskLevel[v]; ok {
		return n
	}
	return fmt.Sprintf("RiskLevel(%d)", v)
}

// Max returns the worse of two levels.
func (v RiskLevel) Max(o RiskLevel) RiskLevel {
	if o > v {
		return o
	}
	return v
}

// FileAnalysis is computed once per file at analysis time and read-only afterward.
type FileAnalysis struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	Size          int64  `json:"size"`
	Extension     string `json:"extension"`
	MimeType      string `json:"mime_type"`
	ContentHash   string `json:"content_hash"`
	IsSupported   bool   `json:"is_supported"`
	FailureReason string `json:"failure_reason,omitempty"`
	// EstimatedSeconds is size / the analyzer's processing speed constant.
	EstimatedSeconds float64 `json:"estimated_seconds"`
	// EstimatedMemory is capped per file so one huge file cannot dominate the aggregate.
	EstimatedMemory int64 `json:"estimated_memory"`
}

type RiskAssessment struct {
	Memory      RiskLevel `json:"memory"`
	Performance RiskLevel `json:"performance"`
	Storage     RiskLevel `json:"storage"`
	Overall     RiskLevel `json:"overall"`
	Mitigations []string  `json:"mitigations,omitempty"`
}

type BatchMode string

const (
	BATCH_MODE_SIZE   BatchMode = "size"
	BATCH_MODE_COUNT  BatchMode = "count"
	BATCH_MODE_TYPE   BatchMode = "type"
	BATCH_MODE_HYBRID BatchMode = "hybrid"
)

type ExecutionMode string

const (
	EXECUTION_MODE_SEQUENTIAL ExecutionMode = "sequential"
	EXECUTION_MODE_PARALLEL   ExecutionMode = "parallel"
	EXECUTION_MODE_ADAPTIVE   ExecutionMode = "adaptive"
)

type BatchStrategy struct {
	BatchSize        int           `json:"batch_size"`
	TotalBatches     int           `json:"total_batches"`
	Mode             BatchMode     `json:"mode"`
	Execution        ExecutionMode `json:"execution"`
	EstimatedSeconds float64       `json:"estimated_seconds"`
}

// Parallelism is the bounded fan-out batch indexing must respect.
func (s BatchStrategy) Parallelism() int {
	if s.Execution == EXECUTION_MODE_SEQUENTIAL {
		return 1
	}
	if s.BatchSize < 3 {
		return s.BatchSize
	}
	return 3
}

// FolderAnalysis aggregates every FileAnalysis under a scanned path.
type FolderAnalysis struct {
	Path            string          `json:"path"`
	TotalFiles      int             `json:"total_files"`
	SupportedFiles  int             `json:"supported_files"`
	TotalSize       int64           `json:"total_size"`
	CountByType     map[string]int  `json:"count_by_type"`
	Files           []*FileAnalysis `json:"files"`
	Risk            RiskAssessment  `json:"risk"`
	Strategy        BatchStrategy   `json:"strategy"`
	Recommendations []string        `json:"recommendations,omitempty"`
}
