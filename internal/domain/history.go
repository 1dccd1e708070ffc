package domain

import "time"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleError     Role = "error"
)

// Message is one entry of the dialog transcript. The transcript lives only
// while the dialog is open; the persisted prompt history holds questions only.
type Message struct {
	Role      Role
	Text      string
	Provider  ProviderID
	CreatedAt time.Time
}
