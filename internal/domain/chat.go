package domain

// Chat roles accepted from callers and sent to text-generation providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and text-generation integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
