package types

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

// ModelConfig describes one selectable LLM backend.
type ModelConfig struct {
	ID            string          `json:"id" toml:"id"`
	Provider      string          `json:"provider" toml:"provider"`
	DisplayName   string          `json:"display_name" toml:"display_name"`
	ContextWindow int             `json:"context_window" toml:"context_window"`
	// PricePerKToken is the blended price per 1000 tokens.
	PricePerKToken decimal.Decimal `json:"price_per_k_token" toml:"price_per_k_token"`
	// Priority breaks score ties deterministically; lower wins.
	Priority     int  `json:"priority" toml:"priority"`
	SupportsCode bool `json:"supports_code" toml:"supports_code"`
}

// ModelPerformance is one appended observation of a model call. Records are
// append-only; retention is the only thing that removes them.
type ModelPerformance struct {
	ID           string          `json:"id" db:"id"`
	ModelID      string          `json:"model_id" db:"model_id"`
	LatencyMs    int64           `json:"latency_ms" db:"latency_ms"`
	Cost         decimal.Decimal `json:"cost" db:"cost"`
	QualityScore float64         `json:"quality_score" db:"quality_score"`
	Failed       bool            `json:"failed" db:"failed"`
	CreatedAt    int64           `json:"created_at" db:"created_at"`
}

type GetModelPerformanceOptions struct {
	ModelID       string
	CreatedBefore int64
	CreatedAfter  int64
}

func (opts GetModelPerformanceOptions) Apply(query *sq.SelectBuilder) {
	if opts.ModelID != "" {
		*query = query.Where(sq.Eq{"model_id": opts.ModelID})
	}
	if opts.CreatedBefore > 0 {
		*query = query.Where(sq.Lt{"created_at": opts.CreatedBefore})
	}
	if opts.CreatedAfter > 0 {
		*query = query.Where(sq.Gt{"created_at": opts.CreatedAfter})
	}
}

func (opts GetModelPerformanceOptions) ApplyDelete(query *sq.DeleteBuilder) {
	if opts.ModelID != "" {
		*query = query.Where(sq.Eq{"model_id": opts.ModelID})
	}
	if opts.CreatedBefore > 0 {
		*query = query.Where(sq.Lt{"created_at": opts.CreatedBefore})
	}
}

// SelectionContext is constructed per request and not persisted beyond logging.
type SelectionContext struct {
	Message      string   `json:"message"`
	History      []string `json:"history,omitempty"`
	MaxLatencyMs int64    `json:"max_latency_ms,omitempty"`
	MaxCost      *decimal.Decimal `json:"max_cost,omitempty"`
}

// ModelScore is the per-candidate breakdown kept for auditing.
type ModelScore struct {
	ModelID      string  `json:"model_id"`
	Quality      float64 `json:"quality"`
	Cost         float64 `json:"cost"`
	Speed        float64 `json:"speed"`
	Availability float64 `json:"availability"`
	ContextFit   float64 `json:"context_fit"`
	Total        float64 `json:"total"`
}

type ModelSelection struct {
	ModelID    string       `json:"model_id"`
	Fallbacks  []string     `json:"fallbacks"`
	Scores     []ModelScore `json:"scores"`
	Complexity float64      `json:"complexity"`
	Reasoning  string       `json:"reasoning"`
	SelectedAt int64        `json:"selected_at"`
}
