package parser

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"

	"github.com/vieagent/vieagent/pkg/types"
	"github.com/vieagent/vieagent/pkg/utils"
)

// TextParser handles single-blob sources: plain text, markdown, csv and json.
// The blob becomes one normalized document with no message structure.
type TextParser struct {
	source types.SourceType
}

func NewTextParser(source types.SourceType) *TextParser {
	return &TextParser{source: source}
}

func (p *TextParser) SourceType() types.SourceType {
	return p.source
}

func (p *TextParser) Parse(ctx context.Context, input RawInput) ([]*types.Document, *ParseSummary, error) {
	summary := &ParseSummary{TotalFiles: 1}

	if len(input.Content) == 0 {
		err := fmt.Errorf("empty content for source type %q", p.source)
		summary.fail(input.Title, err)
		return nil, summary, nil
	}

	text := string(input.Content)
	if !utf8.ValidString(text) {
		if decoded, err := decodeUTF16LE(input.Content); err == nil && utf8.ValidString(decoded) {
			text = decoded
		} else if stripped, _ := decodeASCII(input.Content); stripped != "" {
			text = stripped
		} else {
			summary.fail(input.Title, ErrUndecodable)
			return nil, summary, nil
		}
		summary.Recovered++
	}

	doc := &types.Document{
		ID:          utils.GenUniqIDStr(),
		Collection:  input.Collection,
		Source:      p.source,
		Title:       input.Title,
		Content:     text,
		ContentHash: utils.ContentHash([]byte(text)),
		Stage:       types.DOCUMENT_STAGE_PENDING,
	}

	info := whatlanggo.Detect(text)
	doc.Language = info.Lang.Iso6393()

	summary.ParsedFiles = 1
	return []*types.Document{doc}, summary, nil
}
