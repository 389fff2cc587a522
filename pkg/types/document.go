package types

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// DocumentStage tracks a document through the indexing pipeline.
type DocumentStage int8

const (
	DOCUMENT_STAGE_PENDING    DocumentStage = 1
	DOCUMENT_STAGE_PROCESSING DocumentStage = 2
	DOCUMENT_STAGE_COMPLETED  DocumentStage = 3
	// DOCUMENT_STAGE_WARNING means some chunks failed to embed but at least one succeeded.
	DOCUMENT_STAGE_WARNING DocumentStage = 4
	DOCUMENT_STAGE_FAILED  DocumentStage = 5
)

var namesForDocumentStage = map[DocumentStage]string{
	DOCUMENT_STAGE_PENDING:    "Pending",
	DOCUMENT_STAGE_PROCESSING: "Processing",
	DOCUMENT_STAGE_COMPLETED:  "Completed",
	DOCUMENT_STAGE_WARNING:    "CompletedWithWarnings",
	DOCUMENT_STAGE_FAILED:     "Failed",
}

func (v DocumentStage) String() string {
	if n, ok := namesForDocumentStage[v]; ok {
		return n
	}
	return fmt.Sprintf("DocumentStage(%d)", v)
}

// SourceType identifies the format the raw input came from.
type SourceType string

const (
	SOURCE_TYPE_TEXT        SourceType = "text"
	SOURCE_TYPE_MARKDOWN    SourceType = "markdown"
	SOURCE_TYPE_JSON        SourceType = "json"
	SOURCE_TYPE_CSV         SourceType = "csv"
	SOURCE_TYPE_PDF         SourceType = "pdf"
	SOURCE_TYPE_DOCX        SourceType = "docx"
	SOURCE_TYPE_CHAT_EXPORT SourceType = "chat_export"
)

// Document is a normalized record produced by a parser. Immutable once created.
type Document struct {
	ID               string        `json:"id" db:"id"`
	Collection       string        `json:"collection" db:"collection"`
	Source           SourceType    `json:"source" db:"source"`
	Title            string        `json:"title" db:"title"`
	Content          string        `json:"content" db:"content"`
	ContentHash      string        `json:"content_hash" db:"content_hash"`
	Language         string        `json:"language" db:"language"`
	ParticipantCount int           `json:"participant_count" db:"participant_count"`
	StartAt          int64         `json:"start_at" db:"start_at"`
	EndAt            int64         `json:"end_at" db:"end_at"`
	Stage            DocumentStage `json:"stage" db:"stage"`
	RetryTimes       int           `json:"retry_times" db:"retry_times"`
	CreatedAt        int64         `json:"created_at" db:"created_at"`
	UpdatedAt        int64         `json:"updated_at" db:"updated_at"`

	Messages []*Message `json:"messages,omitempty" db:"-"`
}

// DurationMinutes is derived from the first/last message timestamps.
func (d *Document) DurationMinutes() float64 {
	if d.EndAt <= d.StartAt {
		return 0
	}
	return time.Unix(d.EndAt, 0).Sub(time.Unix(d.StartAt, 0)).Minutes()
}

type GetDocumentOptions struct {
	ID          string
	IDs         []string
	Collection  string
	ContentHash string
	Stage       DocumentStage
	Source      SourceType
}

func (opts GetDocumentOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
	if opts.Collection != "" {
		*query = query.Where(sq.Eq{"collection": opts.Collection})
	}
	if opts.ContentHash != "" {
		*query = query.Where(sq.Eq{"content_hash": opts.ContentHash})
	}
	if opts.Stage > 0 {
		*query = query.Where(sq.Eq{"stage": opts.Stage})
	}
	if opts.Source != "" {
		*query = query.Where(sq.Eq{"source": opts.Source})
	}
}
