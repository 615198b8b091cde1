// Package notifytest provides an in-memory Messenger for tests.
package notifytest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
)

var ErrBlocked = errors.New("Forbidden: bot was blocked by the user")

type Message struct {
	ChatID   int64
	Text     string
	Keyboard notify.Keyboard
	File     *model.Attachment
}

type Recorder struct {
	mu       sync.Mutex
	Messages []Message
	// Blocked chats fail every send.
	Blocked map[int64]bool
}

func NewRecorder() *Recorder {
	return &Recorder{Blocked: map[int64]bool{}}
}

func (r *Recorder) Send(_ context.Context, chatID int64, text string, kb notify.Keyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Blocked[chatID] {
		return ErrBlocked
	}
	r.Messages = append(r.Messages, Message{ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (r *Recorder) SendFile(_ context.Context, chatID int64, file model.Attachment, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Blocked[chatID] {
		return ErrBlocked
	}
	r.Messages = append(r.Messages, Message{ChatID: chatID, Text: caption, File: &file})
	return nil
}

// To returns the messages delivered to chatID.
func (r *Recorder) To(chatID int64) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.Messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Containing returns messages to chatID whose text has substr.
func (r *Recorder) Containing(chatID int64, substr string) []Message {
	var out []Message
	for _, m := range r.To(chatID) {
		if strings.Contains(m.Text, substr) {
			out = append(out, m)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = nil
}
