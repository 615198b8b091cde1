// Package form drives multi-step conversations as a per-user state machine.
package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hihikaAAa/label-bot/internal/access"
	"github.com/hihikaAAa/label-bot/internal/model"
)

var (
	ErrNoSession   = errors.New("no active form")
	ErrUnknownFlow = errors.New("unknown flow")
)

var (
	digits     = regexp.MustCompile(`^\d+$`)
	skipTokens = map[string]bool{"-": true, "нет": true, "skip": true, "пропустить": true}
)

// Reply is what the user sees after Start or Advance.
type Reply struct {
	Text    string
	Options []Option
	// Done is set once the flow has committed.
	Done bool
}

type Engine struct {
	store Store
	flows map[string]*Flow
	Now   func() time.Time
	// TTL discards sessions idle for longer; zero keeps them forever.
	TTL time.Duration
}

func NewEngine(store Store, flows ...*Flow) *Engine {
	e := &Engine{store: store, flows: map[string]*Flow{}, Now: time.Now}
	for _, f := range flows {
		e.Register(f)
	}
	return e
}

func (e *Engine) Register(f *Flow) {
	e.flows[f.Name] = f
}

// Start replaces any session the user has with a fresh one for the named flow.
func (e *Engine) Start(ctx context.Context, user *model.User, name string, seed map[string]string) (Reply, error) {
	f, ok := e.flows[name]
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}
	if !access.Allowed(user.Role, f.Action) {
		return Reply{}, model.ErrForbidden
	}
	s := &Session{UserID: user.ID, Flow: f.Name, Answers: map[string]string{}, UpdatedAt: e.Now()}
	for k, v := range seed {
		s.Answers[k] = v
	}
	if f.Begin != nil {
		if err := f.Begin(ctx, user, s); err != nil {
			return Reply{}, err
		}
	}
	s.Step = f.Steps[0].Key
	if f.First != nil {
		s.Step = f.First(s)
	}
	st, _ := f.step(s.Step)
	if st == nil {
		return Reply{}, fmt.Errorf("flow %s: no step %q", f.Name, s.Step)
	}
	if err := e.store.Save(ctx, s); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}
	return e.render(ctx, st, s, "")
}

// Advance feeds one answer to the user's session. A rejected answer leaves the
// session untouched and repeats the question; so does a failed commit.
func (e *Engine) Advance(ctx context.Context, user *model.User, in Input) (Reply, error) {
	s, err := e.Active(ctx, user.ID)
	if err != nil {
		return Reply{}, err
	}
	if s == nil {
		return Reply{}, ErrNoSession
	}
	f, ok := e.flows[s.Flow]
	if !ok {
		_ = e.store.Delete(ctx, user.ID)
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownFlow, s.Flow)
	}
	st, idx := f.step(s.Step)
	if st == nil {
		_ = e.store.Delete(ctx, user.ID)
		return Reply{}, fmt.Errorf("flow %s: no step %q", f.Name, s.Step)
	}

	value, err := e.validate(ctx, st, s, in)
	if err != nil {
		if IsInvalid(err) {
			return e.render(ctx, st, s, err.Error())
		}
		return Reply{}, err
	}

	next := s.clone()
	next.Set(st.Key, value)
	next.UpdatedAt = e.Now()
	key := f.successor(next, st, idx)
	if key == End {
		msg, err := f.Commit(ctx, user, next)
		if err != nil {
			if IsInvalid(err) {
				return e.render(ctx, st, s, err.Error())
			}
			return Reply{}, err
		}
		if err := e.store.Delete(ctx, user.ID); err != nil {
			return Reply{}, fmt.Errorf("clear session: %w", err)
		}
		return Reply{Text: msg, Done: true}, nil
	}

	nst, _ := f.step(key)
	if nst == nil {
		return Reply{}, fmt.Errorf("flow %s: no step %q", f.Name, key)
	}
	next.Step = key
	if err := e.store.Save(ctx, next); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}
	return e.render(ctx, nst, next, "")
}

// Cancel drops the user's session. It reports whether one existed.
func (e *Engine) Cancel(ctx context.Context, userID int64) (bool, error) {
	s, err := e.store.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	if err := e.store.Delete(ctx, userID); err != nil {
		return false, err
	}
	return s != nil, nil
}

// Active returns the user's live session or nil.
func (e *Engine) Active(ctx context.Context, userID int64) (*Session, error) {
	s, err := e.store.Load(ctx, userID)
	if err != nil || s == nil {
		return nil, err
	}
	if e.TTL > 0 && e.Now().Sub(s.UpdatedAt) > e.TTL {
		return nil, e.store.Delete(ctx, userID)
	}
	return s, nil
}

func (e *Engine) validate(ctx context.Context, st *Step, s *Session, in Input) (string, error) {
	text := strings.TrimSpace(in.Text)
	if st.Optional && in.File == nil && in.Choice == "" && skipTokens[strings.ToLower(text)] {
		return "", nil
	}

	var value string
	switch st.Kind {
	case Text:
		if text == "" {
			return "", Invalid("Нужен текстовый ответ.")
		}
		value = text
	case Number:
		if !digits.MatchString(text) {
			return "", Invalid("Нужно число, только цифры.")
		}
		value = text
	case Choice:
		p, err := st.Prompt(ctx, s)
		if err != nil {
			return "", err
		}
		v, ok := match(p.Options, in.Choice, text)
		if !ok {
			return "", Invalid("Выберите один из предложенных вариантов.")
		}
		value = v
	case Date:
		d, err := model.ParseDate(text)
		if err != nil {
			return "", Invalid("Формат даты: ГГГГ-ММ-ДД.")
		}
		value = d.Format(model.DateLayout)
	case File:
		if in.File == nil {
			return "", Invalid("Прикрепите файл или фото.")
		}
		value = in.File.Ref()
	}

	if st.Accept != nil {
		return st.Accept(ctx, s, in, value)
	}
	return value, nil
}

func match(opts []Option, choice, text string) (string, bool) {
	for _, o := range opts {
		if choice != "" && o.Value == choice {
			return o.Value, true
		}
		if choice == "" && text != "" && (strings.EqualFold(o.Label, text) || o.Value == text) {
			return o.Value, true
		}
	}
	return "", false
}

func (e *Engine) render(ctx context.Context, st *Step, s *Session, problem string) (Reply, error) {
	p, err := st.Prompt(ctx, s)
	if err != nil {
		return Reply{}, err
	}
	text := p.Text
	if st.Optional {
		text += "\n(«-», чтобы пропустить)"
	}
	if problem != "" {
		text = "⛔️ " + problem + "\n\n" + text
	}
	return Reply{Text: text, Options: p.Options}, nil
}
