package session

import (
	"time"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

// Transcript is the ordered, append-only message list shown to the user. It
// is not safe for concurrent use; Manager serializes access.
type Transcript struct {
	messages []chat.Message
	exchange uint64
	now      func() time.Time
}

func newTranscript(now func() time.Time) *Transcript {
	return &Transcript{messages: make([]chat.Message, 0, 16), now: now}
}

// append stamps msg and adds it at the end.
func (t *Transcript) append(msg chat.Message) chat.Message {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = t.now().UTC()
	}
	t.messages = append(t.messages, msg)
	return msg
}

// reset replaces the content with msgs. Exchange numbering keeps counting so
// a late reply from before the reset can never pair with a new message.
func (t *Transcript) reset(msgs ...chat.Message) {
	t.messages = t.messages[:0:0]
	for _, msg := range msgs {
		t.append(msg)
	}
}

func (t *Transcript) nextExchange() uint64 {
	t.exchange++
	return t.exchange
}

// Messages returns a copy of the transcript in display order.
func (t *Transcript) Messages() []chat.Message {
	out := make([]chat.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }
