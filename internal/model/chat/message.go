package chat

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn entry. It is both the wire
// payload replayed to the model endpoint and the audit trail of the
// session, so it is immutable once appended and ordering is
// significant.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
