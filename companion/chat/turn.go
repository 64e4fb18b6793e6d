// Package chat holds the conversation memory and the response orchestrator
// of the companion: the ordered turn log, the credential slot, the offline
// reply table and the submit flow that ties them to a remote provider.
package chat

import "strings"

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// legacyRoleAI appears in snapshots written by older clients.
	legacyRoleAI Role = "ai"
)

// Turn is one role-tagged message. Turns are values and never change after
// they are appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserTurn(content string) Turn { return Turn{Role: RoleUser, Content: content} }

func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// normalizeRole maps legacy and mixed-case roles onto the two known roles.
func normalizeRole(r Role) Role {
	switch Role(strings.ToLower(strings.TrimSpace(string(r)))) {
	case RoleAssistant, legacyRoleAI:
		return RoleAssistant
	default:
		return RoleUser
	}
}
