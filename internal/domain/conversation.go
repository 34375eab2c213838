package domain

// Turn is a single persisted chat exchange.
type Turn struct {
	PK             string
	SK             string
	ConversationID string
	Message        string
	Response       string
	Source         string
	TTL            int64
}
