package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vieagent/vieagent/pkg/types"
)

func writeExportFile(t *testing.T, dir, name, content string) ExportFile {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return ExportFile{TempPath: p, OriginalPath: name}
}

const exportChunkOne = `{
	"title": "Trip planning",
	"participants": [{"name": "An"}, {"name": "Support Bot"}],
	"messages": [
		{"sender_name": "An", "timestamp_ms": 2000, "content": "second message"},
		{"sender_name": "An", "timestamp_ms": 1000, "content": "first message"}
	]
}`

const exportChunkTwo = `{
	"title": "Trip planning",
	"participants": [{"name": "An"}, {"name": "Support Bot"}],
	"messages": [
		{"sender_name": "An", "timestamp_ms": 2000, "content": "second message"},
		{"sender_name": "Support Bot", "timestamp_ms": 3000, "content": "auto-reply: we will get back to you"}
	]
}`

func TestParseMergesConversationAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewChatExportParser(nil)

	docs, summary, err := p.Parse(context.Background(), RawInput{
		SourceType: types.SOURCE_TYPE_CHAT_EXPORT,
		Collection: "test",
		Files: []ExportFile{
			writeExportFile(t, dir, "messages/trip_abc/message_1.json", exportChunkOne),
			writeExportFile(t, dir, "messages/trip_abc/message_2.json", exportChunkTwo),
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, 2, summary.ParsedFiles)
	assert.Equal(t, 0, summary.InvalidFiles)

	doc := docs[0]
	assert.Equal(t, "trip_abc", doc.ID)
	assert.Equal(t, 2, doc.ParticipantCount)

	// duplicate at timestamp 2000 collapses, order is chronological
	require.Len(t, doc.Messages, 3)
	assert.Equal(t, "first message", doc.Messages[0].Content)
	assert.Equal(t, "second message", doc.Messages[1].Content)
	assert.Equal(t, int64(1000), doc.Messages[0].Timestamp)
	assert.Equal(t, int64(2000), doc.Messages[1].Timestamp)
	assert.Equal(t, int64(3000), doc.Messages[2].Timestamp)

	assert.Equal(t, int64(1), doc.StartAt)
	assert.Equal(t, int64(3), doc.EndAt)
	assert.NotEmpty(t, doc.ContentHash)
}

func TestParseDedupKeepsDistinctSenders(t *testing.T) {
	dir := t.TempDir()
	p := NewChatExportParser(nil)

	export := `{
		"title": "t",
		"participants": [{"name": "A"}, {"name": "B"}],
		"messages": [
			{"sender_name": "A", "timestamp_ms": 1000, "content": "same text"},
			{"sender_name": "B", "timestamp_ms": 1000, "content": "same text"}
		]
	}`

	docs, _, err := p.Parse(context.Background(), RawInput{
		Collection: "test",
		Files: []ExportFile{
			writeExportFile(t, dir, "messages/conv/message_1.json", export),
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// same timestamp and content but different senders are both kept
	assert.Len(t, docs[0].Messages, 2)
}

func TestParseDedupKeepsSubSecondMessages(t *testing.T) {
	dir := t.TempDir()
	p := NewChatExportParser(nil)

	export := `{
		"title": "t",
		"participants": [{"name": "A"}, {"name": "B"}],
		"messages": [
			{"sender_name": "A", "timestamp_ms": 1000, "content": "ok"},
			{"sender_name": "A", "timestamp_ms": 1500, "content": "ok"}
		]
	}`

	docs, _, err := p.Parse(context.Background(), RawInput{
		Collection: "test",
		Files: []ExportFile{
			writeExportFile(t, dir, "messages/conv/message_1.json", export),
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// only identical timestamps collapse; 500ms apart is two messages
	require.Len(t, docs[0].Messages, 2)
	assert.Equal(t, int64(1000), docs[0].Messages[0].Timestamp)
	assert.Equal(t, int64(1500), docs[0].Messages[1].Timestamp)
}

func TestParseSkipsInvalidFilesAndContinues(t *testing.T) {
	dir := t.TempDir()
	p := NewChatExportParser(nil)

	docs, summary, err := p.Parse(context.Background(), RawInput{
		Collection: "test",
		Files: []ExportFile{
			writeExportFile(t, dir, "messages/good/message_1.json", exportChunkOne),
			writeExportFile(t, dir, "messages/bad/message_1.json", `{"participants": [], "messages": []}`),
			writeExportFile(t, dir, "messages/broken/message_1.json", `not json at all {{{`),
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 1, summary.ParsedFiles)
	assert.Equal(t, 2, summary.InvalidFiles)
	assert.Len(t, summary.Errors, 2)
}

func TestParseRecoversGarbledFile(t *testing.T) {
	dir := t.TempDir()
	p := NewChatExportParser(nil)

	original := `{
		"title": "café chat",
		"participants": [{"name": "Hà"}],
		"messages": [{"sender_name": "Hà", "timestamp_ms": 1000, "content": "xin chào"}]
	}`
	garbled := make([]rune, 0, len(original))
	for _, b := range []byte(original) {
		garbled = append(garbled, rune(b))
	}

	docs, summary, err := p.Parse(context.Background(), RawInput{
		Collection: "test",
		Files: []ExportFile{
			writeExportFile(t, dir, "messages/viet/message_1.json", string(garbled)),
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, 1, summary.Recovered)
	assert.Equal(t, "café chat", docs[0].Title)
	assert.Contains(t, docs[0].Content, "xin chào")
}

func TestConversationIDFromPath(t *testing.T) {
	assert.Equal(t, "conv_42", conversationIDFromPath("export/messages/conv_42/message_1.json"))
	assert.Equal(t, "conv_42", conversationIDFromPath("export/MESSAGES/conv_42/message_1.json"))
	assert.Equal(t, "conv_42", conversationIDFromPath(`export\messages\conv_42\message_1.json`))
	// no marker: parent directory
	assert.Equal(t, "somewhere", conversationIDFromPath("somewhere/file.json"))
}

func TestRoleClassifier(t *testing.T) {
	assert.Equal(t, types.SENDER_ROLE_BOT, DefaultRoleClassifier("Support Bot", "hello"))
	assert.Equal(t, types.SENDER_ROLE_BOT, DefaultRoleClassifier("Someone", "this is an automated message"))
	assert.Equal(t, types.SENDER_ROLE_BUSINESS, DefaultRoleClassifier("CSKH Shop ABC", "hello"))
	assert.Equal(t, types.SENDER_ROLE_USER, DefaultRoleClassifier("An Nguyen", "hello"))
}

func TestParseDeterministicDocumentOrder(t *testing.T) {
	dir := t.TempDir()
	p := NewChatExportParser(nil)

	input := RawInput{
		Collection: "test",
		Files: []ExportFile{
			writeExportFile(t, dir, "messages/zebra/message_1.json", exportChunkOne),
			writeExportFile(t, dir, "messages/alpha/message_1.json", exportChunkTwo),
		},
	}

	docs, _, err := p.Parse(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].ID)
	assert.Equal(t, "zebra", docs[1].ID)
}
