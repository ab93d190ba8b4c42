package session

import "sync"

type Sender string

const (
	SenderUser  Sender = "user"
	SenderCoach Sender = "coach"
)

// ChatMessage is one immutable transcript entry.
type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Transcript is the insertion-ordered message log of a session. Entries are
// never reordered, deduplicated or evicted.
type Transcript struct {
	mu       sync.RWMutex
	messages []ChatMessage
}

func (t *Transcript) Append(msg ChatMessage) {
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
