package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"github.com/vieagent/vieagent/pkg/types"
	"github.com/vieagent/vieagent/pkg/utils"
)

// folderMarker is the well-known segment of folder-structured exports; the path
// component right after it identifies the conversation.
const folderMarker = "messages"

type exportParticipant struct {
	Name string `json:"name"`
}

type exportAttachment struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type exportMessage struct {
	SenderName  string             `json:"sender_name"`
	SenderID    string             `json:"sender_id"`
	TimestampMs int64              `json:"timestamp_ms"`
	Content     string             `json:"content"`
	Type        string             `json:"type"`
	Photos      []exportAttachment `json:"photos"`
	Files       []exportAttachment `json:"files"`
	Sticker     *exportAttachment  `json:"sticker"`
}

type exportPayload struct {
	Title        string              `json:"title"`
	Participants []exportParticipant `json:"participants"`
	Messages     []exportMessage     `json:"messages"`
}

// ChatExportParser normalizes folder-structured conversation exports. Multiple
// files belonging to one conversation are merged, re-sorted by timestamp and
// de-duplicated.
type ChatExportParser struct {
	classify RoleClassifier
}

func NewChatExportParser(classify RoleClassifier) *ChatExportParser {
	if classify == nil {
		classify = DefaultRoleClassifier
	}
	return &ChatExportParser{classify: classify}
}

func (p *ChatExportParser) SourceType() types.SourceType {
	return types.SOURCE_TYPE_CHAT_EXPORT
}

func (p *ChatExportParser) Parse(ctx context.Context, input RawInput) ([]*types.Document, *ParseSummary, error) {
	summary := &ParseSummary{TotalFiles: len(input.Files)}

	if len(input.Files) == 0 && len(input.Content) > 0 {
		// single-blob export without folder structure
		input.Files = nil
		doc, err := p.parseBlob(input.Collection, "export.json", input.Content, summary)
		if err != nil {
			summary.fail("export.json", err)
			return nil, summary, nil
		}
		summary.ParsedFiles = 1
		summary.TotalFiles = 1
		return []*types.Document{doc}, summary, nil
	}

	grouped := map[string][]*exportPayload{}

	for _, file := range input.Files {
		select {
		case <-ctx.Done():
			return nil, summary, ctx.Err()
		default:
		}

		raw, err := os.ReadFile(file.TempPath)
		if err != nil {
			summary.fail(file.OriginalPath, err)
			continue
		}

		text, recovered, err := DecodeJSONWithRecovery(raw)
		if err != nil {
			summary.fail(file.OriginalPath, err)
			continue
		}
		if recovered {
			summary.Recovered++
			slog.Warn("recovered garbled export file with fallback encoding", slog.String("path", file.OriginalPath))
		}

		payload := &exportPayload{}
		if err := json.Unmarshal([]byte(text), payload); err != nil {
			summary.fail(file.OriginalPath, err)
			continue
		}
		if err := validatePayload(payload); err != nil {
			slog.Warn("skipping malformed export file", slog.String("path", file.OriginalPath), slog.String("reason", err.Error()))
			summary.fail(file.OriginalPath, err)
			continue
		}

		id := conversationIDFromPath(file.OriginalPath)
		grouped[id] = append(grouped[id], payload)
		summary.ParsedFiles++
	}

	var docs []*types.Document
	for id, payloads := range grouped {
		docs = append(docs, p.buildDocument(input.Collection, id, payloads))
	}

	// group iteration order is random; keep output deterministic
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return docs, summary, nil
}

func (p *ChatExportParser) parseBlob(collection, name string, raw []byte, summary *ParseSummary) (*types.Document, error) {
	text, recovered, err := DecodeJSONWithRecovery(raw)
	if err != nil {
		return nil, err
	}
	if recovered {
		summary.Recovered++
	}

	payload := &exportPayload{}
	if err := json.Unmarshal([]byte(text), payload); err != nil {
		return nil, err
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	return p.buildDocument(collection, "", []*exportPayload{payload}), nil
}

func validatePayload(payload *exportPayload) error {
	if len(payload.Participants) == 0 {
		return fmt.Errorf("export has no participants")
	}
	if payload.Messages == nil {
		return fmt.Errorf("export has no message array")
	}
	return nil
}

// conversationIDFromPath locates the folder marker case-insensitively and takes
// the next component. Files without the marker fall back to their parent dir.
func conversationIDFromPath(original string) string {
	segments := strings.Split(path.Clean(strings.ReplaceAll(original, "\\", "/")), "/")
	for i, seg := range segments {
		if strings.EqualFold(seg, folderMarker) && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	if len(segments) > 1 {
		return segments[len(segments)-2]
	}
	return segments[0]
}

func (p *ChatExportParser) buildDocument(collection, id string, payloads []*exportPayload) *types.Document {
	var (
		title        string
		participants []string
		messages     []*types.Message
	)

	for _, payload := range payloads {
		if title == "" {
			title = payload.Title
		}
		for _, part := range payload.Participants {
			participants = append(participants, part.Name)
		}
		for _, msg := range payload.Messages {
			messages = append(messages, p.normalizeMessage(msg))
		}
	}

	participants = lo.Uniq(participants)

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	messages = lo.UniqBy(messages, func(m *types.Message) string {
		return m.DedupKey()
	})

	if id == "" {
		id = utils.ConversationID(participants)
	}

	doc := &types.Document{
		ID:               id,
		Collection:       collection,
		Source:           types.SOURCE_TYPE_CHAT_EXPORT,
		Title:            title,
		ParticipantCount: len(participants),
		Stage:            types.DOCUMENT_STAGE_PENDING,
		Messages:         messages,
	}

	if len(messages) > 0 {
		doc.StartAt = messages[0].Timestamp / 1000
		doc.EndAt = messages[len(messages)-1].Timestamp / 1000
	}

	doc.Content = renderTranscript(messages)
	doc.ContentHash = utils.ContentHash([]byte(doc.Content))
	if doc.Content != "" {
		info := whatlanggo.Detect(doc.Content)
		doc.Language = info.Lang.Iso6393()
	}

	return doc
}

func (p *ChatExportParser) normalizeMessage(msg exportMessage) *types.Message {
	out := &types.Message{
		ID:         utils.GenUniqIDStr(),
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		SenderRole: p.classify(msg.SenderName, msg.Content),
		Content:    msg.Content,
		Type:       types.MESSAGE_TYPE_TEXT,
		Timestamp:  msg.TimestampMs,
	}

	switch {
	case msg.Sticker != nil:
		out.Type = types.MESSAGE_TYPE_STICKER
		out.Attachments = []types.Attachment{{URI: msg.Sticker.URI, Name: msg.Sticker.Name}}
	case len(msg.Photos) > 0:
		out.Type = types.MESSAGE_TYPE_IMAGE
		out.Attachments = toAttachments(msg.Photos)
	case len(msg.Files) > 0:
		out.Type = types.MESSAGE_TYPE_FILE
		out.Attachments = toAttachments(msg.Files)
	}

	if msg.Type != "" && out.Type == types.MESSAGE_TYPE_TEXT {
		switch strings.ToLower(msg.Type) {
		case "image", "photo":
			out.Type = types.MESSAGE_TYPE_IMAGE
		case "file":
			out.Type = types.MESSAGE_TYPE_FILE
		case "sticker":
			out.Type = types.MESSAGE_TYPE_STICKER
		}
	}

	return out
}

func toAttachments(items []exportAttachment) []types.Attachment {
	return lo.Map(items, func(item exportAttachment, _ int) types.Attachment {
		return types.Attachment{URI: item.URI, Name: item.Name}
	})
}

// renderTranscript flattens a conversation into indexable text, one line per
// message with sender attribution.
func renderTranscript(messages []*types.Message) string {
	b := strings.Builder{}
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		b.WriteString(m.SenderName)
		b.WriteString(" (")
		b.WriteString(string(m.SenderRole))
		b.WriteString("): ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
