package models

// Chat transcript roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one entry in a session transcript.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
