package parser

import (
	"context"
	"fmt"

	"github.com/vieagent/vieagent/pkg/types"
)

// ExportFile pairs a readable temp location with the path the file had inside
// the original export archive. The original path carries the conversation id.
type ExportFile struct {
	TempPath     string
	OriginalPath string
}

// RawInput is one ingestion request: either a single content blob or a set of
// folder-structured export files.
type RawInput struct {
	SourceType types.SourceType
	Collection string
	Title      string
	Content    []byte
	Files      []ExportFile
}

// ParseSummary accumulates per-file outcomes. Individual file failures are
// counted here, never propagated to fail the whole parse.
type ParseSummary struct {
	TotalFiles   int      `json:"total_files"`
	ParsedFiles  int      `json:"parsed_files"`
	InvalidFiles int      `json:"invalid_files"`
	Recovered    int      `json:"recovered"` // files that needed encoding recovery
	Errors       []string `json:"errors,omitempty"`
}

func (s *ParseSummary) fail(path string, err error) {
	s.InvalidFiles++
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", path, err))
}

// Parser converts raw export blobs into normalized documents.
type Parser interface {
	Parse(ctx context.Context, input RawInput) ([]*types.Document, *ParseSummary, error)
	SourceType() types.SourceType
}

// Registry resolves parsers by source type.
type Registry struct {
	parsers map[types.SourceType]Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[types.SourceType]Parser)}
	for _, p := range parsers {
		r.parsers[p.SourceType()] = p
	}
	return r
}

func (r *Registry) Register(p Parser) {
	r.parsers[p.SourceType()] = p
}

func (r *Registry) Get(source types.SourceType) (Parser, error) {
	p, ok := r.parsers[source]
	if !ok {
		return nil, fmt.Errorf("no parser registered for source type %q", source)
	}
	return p, nil
}
