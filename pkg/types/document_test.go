package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurationMinutes(t *testing.T) {
	doc := &Document{StartAt: 1000, EndAt: 1000 + 90*60}
	assert.Equal(t, 90.0, doc.DurationMinutes())

	empty := &Document{StartAt: 1000, EndAt: 1000}
	assert.Zero(t, empty.DurationMinutes())

	inverted := &Document{StartAt: 2000, EndAt: 1000}
	assert.Zero(t, inverted.DurationMinutes())
}

func TestMessageDedupKey(t *testing.T) {
	a := &Message{Timestamp: 10, SenderName: "An", Content: "hi"}
	b := &Message{Timestamp: 10, SenderName: "An", Content: "hi", ID: "different-id"}
	c := &Message{Timestamp: 10, SenderName: "Binh", Content: "hi"}

	assert.Equal(t, a.DedupKey(), b.DedupKey())
	assert.NotEqual(t, a.DedupKey(), c.DedupKey())
}

func TestBatchStrategyParallelism(t *testing.T) {
	assert.Equal(t, 1, BatchStrategy{Execution: EXECUTION_MODE_SEQUENTIAL, BatchSize: 10}.Parallelism())
	assert.Equal(t, 2, BatchStrategy{Execution: EXECUTION_MODE_PARALLEL, BatchSize: 2}.Parallelism())
	assert.Equal(t, 3, BatchStrategy{Execution: EXECUTION_MODE_PARALLEL, BatchSize: 10}.Parallelism())
	assert.Equal(t, 3, BatchStrategy{Execution: EXECUTION_MODE_ADAPTIVE, BatchSize: 20}.Parallelism())
}
