package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/hihikaAAa/label-bot/internal/form"
)

// Sessions keeps form state in the form_sessions table so a restart does
// not lose half-filled forms.
type Sessions struct {
	db *DB
}

var _ form.Store = (*Sessions)(nil)

func (d *DB) Sessions() *Sessions { return &Sessions{db: d} }

func (s *Sessions) Save(ctx context.Context, sess *form.Session) error {
	b, err := json.Marshal(sess.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.exec(ctx, `
		INSERT INTO form_sessions (user_id, flow, step, payload, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET flow=excluded.flow, step=excluded.step,
			payload=excluded.payload, updated_at=excluded.updated_at
	`, sess.UserID, sess.Flow, sess.Step, string(b), sess.UpdatedAt.UTC().Format(tsLayout))
	return err
}

func (s *Sessions) Load(ctx context.Context, userID int64) (*form.Session, error) {
	sess := &form.Session{UserID: userID}
	var payload, updated string
	err := s.db.queryRow(ctx, `SELECT flow, step, payload, updated_at FROM form_sessions WHERE user_id=?`, userID).
		Scan(&sess.Flow, &sess.Step, &payload, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &sess.Answers); err != nil {
		return nil, err
	}
	if sess.Answers == nil {
		sess.Answers = map[string]string{}
	}
	sess.UpdatedAt = parseStamp(updated)
	return sess, nil
}

func (s *Sessions) Delete(ctx context.Context, userID int64) error {
	_, err := s.db.exec(ctx, `DELETE FROM form_sessions WHERE user_id=?`, userID)
	return err
}
