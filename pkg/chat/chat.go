package chat

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/google/uuid"
)

const (
	// MaxInputLength is the longest message a player may send, in runes.
	MaxInputLength = 100
	// DisplayCount is the number of recent messages clients keep on screen.
	DisplayCount = 10
	// DisplayLifetime is how long a message stays on screen.
	DisplayLifetime = 10 * time.Second
	// DefaultHistory is the number of messages retained server-side.
	DefaultHistory = 100
)

var ErrEmptyMessage = errors.New("message is empty")

type Kind string

const (
	KindPlayer  Kind = "player"
	KindSystem  Kind = "system"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindPrivate Kind = "private"
)

type Channel string

const (
	ChannelGlobal  Channel = "global"
	ChannelWorld   Channel = "world"
	ChannelPrivate Channel = "private"
)

type Message struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Channel   Channel   `json:"channel"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Sanitize trims the input and truncates it to MaxInputLength runes.
func Sanitize(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxInputLength {
		runes := []rune(text)
		text = string(runes[:MaxInputLength])
	}
	return text, nil
}

func NewMessage(kind Kind, channel Channel, from, text string, now time.Time) *Message {
	return &Message{
		ID:        uuid.New(),
		Kind:      kind,
		Channel:   channel,
		From:      from,
		Text:      text,
		Timestamp: now,
	}
}

// System builds a server notice visible to everyone in the world.
func System(kind Kind, text string, now time.Time) *Message {
	return NewMessage(kind, ChannelWorld, "", text, now)
}

// History is a bounded, thread-safe log of recent messages.
type History struct {
	lock     sync.RWMutex
	messages []*Message
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &History{capacity: capacity}
}

func (h *History) Add(m *Message) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.messages = append(h.messages, m)
	if over := len(h.messages) - h.capacity; over > 0 {
		h.messages = append([]*Message(nil), h.messages[over:]...)
	}
}

// Recent returns up to limit of the newest messages, oldest first.
func (h *History) Recent(limit int) []*Message {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if limit <= 0 || limit > len(h.messages) {
		limit = len(h.messages)
	}
	out := make([]*Message, limit)
	copy(out, h.messages[len(h.messages)-limit:])
	return out
}

// Visible returns what a client shows at now: the last DisplayCount messages
// that are younger than DisplayLifetime.
func (h *History) Visible(now time.Time) []*Message {
	var out []*Message
	for _, m := range h.Recent(DisplayCount) {
		if now.Sub(m.Timestamp) < DisplayLifetime {
			out = append(out, m)
		}
	}
	return out
}

func (h *History) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.messages)
}

// ResolveChannel demotes global chat to world chat for players below moderator.
func ResolveChannel(requested Channel, level permissions.Level) Channel {
	if requested == ChannelGlobal && !level.Has(permissions.Moderator) {
		return ChannelWorld
	}
	if requested == "" {
		return ChannelWorld
	}
	return requested
}
