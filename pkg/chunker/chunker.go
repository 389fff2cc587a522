package chunker

import (
	"errors"

	"github.com/vieagent/vieagent/pkg/types"
)

var (
	ErrContentTooShort = errors.New("content is too short to index")
	ErrInvalidSize     = errors.New("chunk size must be positive")
	ErrInvalidOverlap  = errors.New("overlap must be non-negative and smaller than chunk size")
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
	// MinContentLength rejects degenerate inputs before chunking.
	MinContentLength = 50
)

// Chunker splits normalized document text into ordered overlapping segments.
// Offsets and sizes are measured in runes so multi-byte text chunks cleanly.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if overlap < 0 || overlap >= size {
		return nil, ErrInvalidOverlap
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func NewDefault() *Chunker {
	c, _ := New(DefaultChunkSize, DefaultOverlap)
	return c
}

func (c *Chunker) Strategy() string {
	return "char_overlap"
}

// Split produces the document's chunks with monotonically increasing indices so
// neighbors can be reassembled for context expansion at retrieval time.
func (c *Chunker) Split(doc *types.Document) ([]*types.DocumentChunk, error) {
	runes := []rune(doc.Content)
	if len(runes) < MinContentLength {
		return nil, ErrContentTooShort
	}

	var chunks []*types.DocumentChunk
	step := c.size - c.overlap

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, &types.DocumentChunk{
			DocumentID: doc.ID,
			Collection: doc.Collection,
			ChunkIndex: len(chunks),
			Content:    string(runes[start:end]),
			CharOffset: start,
			Overlap:    c.overlap,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
