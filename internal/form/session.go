package form

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hihikaAAa/label-bot/internal/model"
)

// Session is the whole state of one user's active flow.
type Session struct {
	UserID    int64
	Flow      string
	Step      string
	Answers   map[string]string
	UpdatedAt time.Time
}

func (s *Session) Get(key string) string { return s.Answers[key] }

func (s *Session) Set(key, value string) {
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}
	s.Answers[key] = value
}

func (s *Session) Int(key string) int64 {
	n, _ := strconv.ParseInt(s.Answers[key], 10, 64)
	return n
}

func (s *Session) Bool(key string) bool { return s.Answers[key] == Yes }

func (s *Session) Date(key string) time.Time {
	d, _ := model.ParseDate(s.Answers[key])
	return d
}

func (s *Session) clone() *Session {
	c := *s
	c.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	return &c
}

// Store persists at most one session per user.
type Store interface {
	// Load returns nil and no error when the user has no session.
	Load(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[int64]*Session{}}
}

func (m *MemoryStore) Load(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return s.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s.clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
