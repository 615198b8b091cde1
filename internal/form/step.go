package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/hihikaAAa/label-bot/internal/access"
	"github.com/hihikaAAa/label-bot/internal/model"
)

type Kind int

const (
	Text Kind = iota
	Number
	Choice
	Date
	File
)

// End as a successor commits the flow.
const End = "$end"

const (
	Yes = "yes"
	No  = "no"
)

type Option struct {
	Label string
	Value string
}

type Prompt struct {
	Text    string
	Options []Option
}

// Input is one raw answer: typed text, a pressed button, or an attachment.
type Input struct {
	Text   string
	Choice string
	File   *model.Attachment
}

type Step struct {
	Key      string
	Kind     Kind
	Optional bool
	Prompt   func(ctx context.Context, s *Session) (Prompt, error)
	// Accept runs after the kind check and may replace the stored value.
	Accept func(ctx context.Context, s *Session, in Input, value string) (string, error)
	// Next picks the successor; nil means the following step in order.
	Next func(s *Session) string
}

type Flow struct {
	Name   string
	Action access.Action
	Steps  []Step
	// First picks the starting step; nil means Steps[0].
	First func(s *Session) string
	// Begin may refuse to start the flow, e.g. when a seeded record is gone.
	Begin func(ctx context.Context, user *model.User, s *Session) error
	// Commit writes the collected answers and returns the closing message.
	Commit func(ctx context.Context, user *model.User, s *Session) (string, error)
}

func (f *Flow) step(key string) (*Step, int) {
	for i := range f.Steps {
		if f.Steps[i].Key == key {
			return &f.Steps[i], i
		}
	}
	return nil, -1
}

func (f *Flow) successor(s *Session, cur *Step, idx int) string {
	if cur.Next != nil {
		return cur.Next(s)
	}
	if idx+1 < len(f.Steps) {
		return f.Steps[idx+1].Key
	}
	return End
}

// ValidationError is an answer problem the user can fix by answering again.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsInvalid(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Static is a Prompt func with fixed text and options.
func Static(text string, opts ...Option) func(context.Context, *Session) (Prompt, error) {
	return func(context.Context, *Session) (Prompt, error) {
		return Prompt{Text: text, Options: opts}, nil
	}
}

// YesNo offers the two answers stored as Yes and No.
func YesNo(yes, no string) []Option {
	return []Option{{Label: yes, Value: Yes}, {Label: no, Value: No}}
}
