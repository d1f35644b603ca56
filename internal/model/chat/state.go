package chat

// State is the ordered, append-only transcript of one logical session.
// It is replayed verbatim on every model call to preserve context.
// Previous turns are never rewritten or removed, even when a turn
// fails. A State is owned by exactly one session and must only ever
// have a single writer; callers that share a session across goroutines
// are responsible for serializing turns (see service/chat).
type State struct {
	messages []Message
}

// NewState returns an empty transcript.
func NewState() *State {
	return &State{}
}

// Append records a message at the end of the transcript.
func (s *State) Append(m Message) {
	s.messages = append(s.messages, m)
}

// Clone returns a deep, independent copy. Appends to the clone are
// never visible to the original or to sibling clones.
func (s *State) Clone() *State {
	copied := make([]Message, len(s.messages))
	copy(copied, s.messages)
	return &State{messages: copied}
}

// Messages returns a snapshot of the transcript.
func (s *State) Messages() []Message {
	copied := make([]Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len reports the number of committed messages.
func (s *State) Len() int {
	return len(s.messages)
}
