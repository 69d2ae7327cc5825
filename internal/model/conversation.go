package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	ItemStatusPending   = "pending"
	ItemStatusCompleted = "completed"
	ItemStatusFailed    = "failed"
)

type Conversation struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	NoteID string `json:"note_id"`
	Title  string `json:"title"`
	State  int    `json:"state"`
	Ctime  int64  `json:"ctime"`
	Mtime  int64  `json:"mtime"`
}

type ConversationItem struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Seq            int64  `json:"seq"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	Status         string `json:"status"`
	Error          string `json:"error"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}

// ConversationPoll is the payload returned to polling clients. Completed is
// true once no item in the conversation is pending.
type ConversationPoll struct {
	Items     []ConversationItem `json:"items"`
	Completed bool               `json:"completed"`
}
