package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashIsStable(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	c := ContentHash([]byte("hello!"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestConversationIDIgnoresParticipantOrder(t *testing.T) {
	a := ConversationID([]string{"An", "Binh", "Chi"})
	b := ConversationID([]string{"Chi", "An", "Binh"})
	c := ConversationID([]string{"An", "Binh"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestConversationIDDoesNotMutateInput(t *testing.T) {
	participants := []string{"Chi", "An"}
	ConversationID(participants)
	assert.Equal(t, []string{"Chi", "An"}, participants)
}

func TestGenUniqIDStrIsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		id := GenUniqIDStr()
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestRandomBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := Random(3, 7)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 7)
	}
	assert.Equal(t, 5, Random(5, 5))
	assert.Equal(t, 5, Random(5, 1))
}
