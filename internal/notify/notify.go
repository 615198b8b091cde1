// Package notify delivers best-effort messages to users.
package notify

import (
	"context"
	"log"

	"github.com/hihikaAAa/label-bot/internal/model"
)

type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row.
type Keyboard [][]Button

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) error
	SendFile(ctx context.Context, chatID int64, file model.Attachment, caption string) error
}

// Dispatcher never propagates delivery errors: a user who blocked the bot
// must not stop a job or a commit.
type Dispatcher struct {
	m Messenger
}

func NewDispatcher(m Messenger) *Dispatcher {
	return &Dispatcher{m: m}
}

func (d *Dispatcher) Notify(ctx context.Context, chatID int64, text string, kb Keyboard) bool {
	if chatID == 0 {
		return false
	}
	if err := d.m.Send(ctx, chatID, text, kb); err != nil {
		log.Printf("WARN notify %d: %v", chatID, err)
		return false
	}
	return true
}

// NotifyMany sends the same message to every id once and returns how many got it.
func (d *Dispatcher) NotifyMany(ctx context.Context, chatIDs []int64, text string, kb Keyboard) int {
	seen := make(map[int64]bool, len(chatIDs))
	n := 0
	for _, id := range chatIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if d.Notify(ctx, id, text, kb) {
			n++
		}
	}
	return n
}

func (d *Dispatcher) NotifyFile(ctx context.Context, chatID int64, file model.Attachment, caption string) bool {
	if chatID == 0 {
		return false
	}
	if err := d.m.SendFile(ctx, chatID, file, caption); err != nil {
		log.Printf("WARN notify file %d: %v", chatID, err)
		return false
	}
	return true
}
