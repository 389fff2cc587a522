package parser

import (
	"strings"

	"github.com/vieagent/vieagent/pkg/types"
)

// RoleClassifier decides a message sender's role from name and content. The
// default is a keyword heuristic: best-effort, never authoritative. Swap it to
// tune classification without touching parse orchestration.
type RoleClassifier func(senderName, content string) types.SenderRole

var businessKeywords = []string{"support", "agent", "admin", "staff", "team", "service", "cskh", "shop"}

var botKeywords = []string{"bot", "automated", "auto-reply", "autoreply", "assistant", "system"}

func DefaultRoleClassifier(senderName, content string) types.SenderRole {
	name := strings.ToLower(senderName)
	body := strings.ToLower(content)

	for _, kw := range botKeywords {
		if strings.Contains(name, kw) {
			return types.SENDER_ROLE_BOT
		}
	}
	for _, kw := range businessKeywords {
		if strings.Contains(name, kw) {
			return types.SENDER_ROLE_BUSINESS
		}
	}
	// Message bodies only reveal automation, not business identity.
	for _, kw := range []string{"this is an automated", "do not reply to this message"} {
		if strings.Contains(body, kw) {
			return types.SENDER_ROLE_BOT
		}
	}

	return types.SENDER_ROLE_USER
}
