package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vieagent/vieagent/pkg/types"
)

func testDoc(content string) *types.Document {
	return &types.Document{
		ID:         "doc-1",
		Collection: "test",
		Content:    content,
	}
}

func TestSplitOverlapWindows(t *testing.T) {
	c, err := New(1000, 100)
	require.NoError(t, err)

	chunks, err := c.Split(testDoc(strings.Repeat("a", 2500)))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].CharOffset)
	assert.Equal(t, 900, chunks[1].CharOffset)
	assert.Equal(t, 1800, chunks[2].CharOffset)

	assert.Equal(t, 1000, len([]rune(chunks[0].Content)))
	assert.Equal(t, 1000, len([]rune(chunks[1].Content)))
	assert.Equal(t, 700, len([]rune(chunks[2].Content)))
}

func TestSplitIndicesAreSequential(t *testing.T) {
	c, err := New(200, 50)
	require.NoError(t, err)

	chunks, err := c.Split(testDoc(strings.Repeat("x", 1000)))
	require.NoError(t, err)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "doc-1", chunk.DocumentID)
		assert.Equal(t, 50, chunk.Overlap)
	}
}

func TestSplitShortContentFitsOneChunk(t *testing.T) {
	c := NewDefault()

	chunks, err := c.Split(testDoc(strings.Repeat("b", 300)))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].CharOffset)
}

func TestSplitRejectsTooShortContent(t *testing.T) {
	c := NewDefault()

	_, err := c.Split(testDoc("too short"))
	assert.ErrorIs(t, err, ErrContentTooShort)
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	content := strings.Repeat("语", 250)
	chunks, err := c.Split(testDoc(content))
	require.NoError(t, err)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk.Content)), 100)
	}

	var rebuilt strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk.Content)
		if i > 0 {
			runes = runes[10:]
		}
		rebuilt.WriteString(string(runes))
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestNewValidation(t *testing.T) {
	_, err := New(0, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(100, 100)
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	_, err = New(100, -1)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}
