package sqldb

import (
	"context"

	"github.com/hihikaAAa/label-bot/internal/model"
)

const userCols = `id, username, name, role, active, created_at`

func scanUser(s scanner) (*model.User, error) {
	u := &model.User{}
	var role, created string
	var active int
	if err := s.Scan(&u.ID, &u.Username, &u.Name, &role, &active, &created); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	u.Active = active != 0
	u.CreatedAt = parseStamp(created)
	return u, nil
}

func (d *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(d.queryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=?`, id))
	return u, notFound(err)
}

// UpsertUser creates the user or overwrites profile and role of an existing one.
func (d *DB) UpsertUser(ctx context.Context, u *model.User) error {
	now := d.stamp()
	_, err := d.exec(ctx, `
		INSERT INTO users (id, username, name, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username=excluded.username, name=excluded.name,
			role=excluded.role, active=excluded.active
	`, u.ID, u.Username, u.Name, string(u.Role), boolInt(u.Active), now)
	if err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = parseStamp(now)
	}
	return nil
}

func (d *DB) UpdateUsername(ctx context.Context, id int64, username string) error {
	_, err := d.exec(ctx, `UPDATE users SET username=? WHERE id=? AND username<>?`, username, id, username)
	return err
}

func (d *DB) DeleteUser(ctx context.Context, id int64) (bool, error) {
	ok, err := changed(d.exec(ctx, `DELETE FROM users WHERE id=?`, id))
	if err != nil || !ok {
		return ok, err
	}
	_, err = d.exec(ctx, `DELETE FROM form_sessions WHERE user_id=?`, id)
	return true, err
}

func (d *DB) ListUsers(ctx context.Context) ([]*model.User, error) {
	return d.listUsers(ctx, `SELECT `+userCols+` FROM users ORDER BY pk`)
}

// ListUsersByRole returns holders of role in insertion order.
func (d *DB) ListUsersByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	return d.listUsers(ctx, `SELECT `+userCols+` FROM users WHERE role=? AND active=1 ORDER BY pk`, string(role))
}

func (d *DB) FirstUserWithRole(ctx context.Context, role model.Role) (*model.User, error) {
	u, err := scanUser(d.queryRow(ctx, `SELECT `+userCols+` FROM users WHERE role=? AND active=1 ORDER BY pk LIMIT 1`, string(role)))
	return u, notFound(err)
}

func (d *DB) listUsers(ctx context.Context, q string, args ...any) ([]*model.User, error) {
	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
