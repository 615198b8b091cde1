package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/hihikaAAa/label-bot/internal/model"
)

const taskCols = `id, title, description, assignee_id, creator_id, release_id, parent_id, category,
	deadline, status, file_required, file_url, comment, created_at`

func scanTask(s scanner) (*model.Task, error) {
	t := &model.Task{}
	var release, parent sql.NullInt64
	var category, deadline, status, created string
	var fileRequired int
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &t.AssigneeID, &t.CreatorID, &release, &parent,
		&category, &deadline, &status, &fileRequired, &t.FileURL, &t.Comment, &created); err != nil {
		return nil, err
	}
	t.ReleaseID = release.Int64
	t.ParentID = parent.Int64
	t.Category = model.TaskCategory(category)
	t.Deadline = parseDate(deadline)
	t.Status = model.TaskStatus(status)
	t.FileRequired = fileRequired != 0
	t.CreatedAt = parseStamp(created)
	return t, nil
}

func (d *DB) CreateTask(ctx context.Context, t *model.Task) error {
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	now := d.stamp()
	id, err := d.insert(ctx, `
		INSERT INTO tasks (title, description, assignee_id, creator_id, release_id, parent_id, category,
			deadline, status, file_required, file_url, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.AssigneeID, t.CreatorID, nullID(t.ReleaseID), nullID(t.ParentID),
		string(t.Category), fmtDate(t.Deadline), string(t.Status), boolInt(t.FileRequired),
		t.FileURL, t.Comment, now)
	if err != nil {
		return err
	}
	t.ID = id
	t.CreatedAt = parseStamp(now)
	return nil
}

func (d *DB) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(d.queryRow(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id))
	return t, notFound(err)
}

func (d *DB) ListOpenTasks(ctx context.Context, assignee int64) ([]*model.Task, error) {
	q := `SELECT ` + taskCols + ` FROM tasks WHERE status IN (` + placeholders(len(model.OpenStatuses)) + `)`
	args := statusArgs(model.OpenStatuses)
	if assignee != 0 {
		q += ` AND assignee_id=?`
		args = append(args, assignee)
	}
	return d.listTasks(ctx, q+` ORDER BY deadline, id`, args...)
}

func (d *DB) ListTasksByStatus(ctx context.Context, assignee int64, status model.TaskStatus) ([]*model.Task, error) {
	q := `SELECT ` + taskCols + ` FROM tasks WHERE status=?`
	args := []any{string(status)}
	if assignee != 0 {
		q += ` AND assignee_id=?`
		args = append(args, assignee)
	}
	return d.listTasks(ctx, q+` ORDER BY deadline, id`, args...)
}

func (d *DB) ListHistory(ctx context.Context, assignee int64, limit int) ([]*model.Task, error) {
	q := `SELECT ` + taskCols + ` FROM tasks WHERE status IN (?, ?)`
	args := []any{string(model.StatusDone), string(model.StatusRejected)}
	if assignee != 0 {
		q += ` AND assignee_id=?`
		args = append(args, assignee)
	}
	return d.listTasks(ctx, q+` ORDER BY id DESC LIMIT ?`, append(args, limit)...)
}

// ListOverdueCandidates selects tasks past their deadline that were never marked overdue.
func (d *DB) ListOverdueCandidates(ctx context.Context, today time.Time) ([]*model.Task, error) {
	return d.listTasks(ctx, `SELECT `+taskCols+` FROM tasks
		WHERE deadline < ? AND status IN (?, ?) ORDER BY id`,
		fmtDate(today), string(model.StatusPending), string(model.StatusInProgress))
}

func (d *DB) ListTasksDueOn(ctx context.Context, day time.Time) ([]*model.Task, error) {
	return d.listTasks(ctx, `SELECT `+taskCols+` FROM tasks
		WHERE deadline = ? AND status IN (?, ?) ORDER BY id`,
		fmtDate(day), string(model.StatusPending), string(model.StatusInProgress))
}

func (d *DB) FindReleaseTask(ctx context.Context, releaseID int64, category model.TaskCategory) (*model.Task, error) {
	t, err := scanTask(d.queryRow(ctx, `SELECT `+taskCols+` FROM tasks
		WHERE release_id=? AND category=? ORDER BY id LIMIT 1`, releaseID, string(category)))
	return t, notFound(err)
}

func (d *DB) HasTask(ctx context.Context, assignee int64, category model.TaskCategory, deadline time.Time) (bool, error) {
	var n int
	err := d.queryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE assignee_id=? AND category=? AND deadline=?`,
		assignee, string(category), fmtDate(deadline)).Scan(&n)
	return n > 0, err
}

func (d *DB) TransitionTask(ctx context.Context, id int64, from []model.TaskStatus, to model.TaskStatus) (bool, error) {
	args := append([]any{string(to), id}, statusArgs(from)...)
	return changed(d.exec(ctx, `UPDATE tasks SET status=? WHERE id=? AND status IN (`+placeholders(len(from))+`)`, args...))
}

func (d *DB) CompleteTask(ctx context.Context, id int64, fileURL, comment string) (bool, error) {
	args := append([]any{fileURL, comment, id}, statusArgs(model.OpenStatuses)...)
	args = append(args, boolInt(fileURL != ""))
	return changed(d.exec(ctx, `UPDATE tasks SET status='done', file_url=?, comment=?
		WHERE id=? AND status IN (`+placeholders(len(model.OpenStatuses))+`)
		AND (file_required=0 OR ?=1)`, args...))
}

func (d *DB) DeleteTask(ctx context.Context, id int64) (bool, error) {
	return changed(d.exec(ctx, `DELETE FROM tasks WHERE id=?`, id))
}

func (d *DB) listTasks(ctx context.Context, q string, args ...any) ([]*model.Task, error) {
	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
