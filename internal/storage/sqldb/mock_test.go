package sqldb

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hihikaAAa/label-bot/internal/model"
)

func newMock(t *testing.T, dialect Dialect) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return New(conn, dialect), mock
}

func TestRebind(t *testing.T) {
	pg := New(nil, Postgres)
	assert.Equal(t, "SELECT a FROM t WHERE x=$1 AND y IN ($2,$3)", pg.rebind("SELECT a FROM t WHERE x=? AND y IN (?,?)"))
	lite := New(nil, SQLite)
	assert.Equal(t, "x=?", lite.rebind("x=?"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "label.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", sqliteDSN("label.db"))
	assert.Equal(t, "file:label.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", sqliteDSN("file:label.db?mode=rwc"))
}

func TestDeleteReleaseRollsBackOnFailure(t *testing.T) {
	d, mock := newMock(t, SQLite)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE release_id=?`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM releases WHERE id=?`)).
		WithArgs(int64(5)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	ok, err := d.DeleteRelease(ctx, 5)
	assert.False(t, ok)
	assert.EqualError(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlaceholders(t *testing.T) {
	d, mock := newMock(t, Postgres)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "assignee_id", "creator_id", "release_id", "parent_id",
		"category", "deadline", "status", "file_required", "file_url", "comment", "created_at"}).
		AddRow(9, "🎨 Обложка | Nova", "", 300, 200, 4, nil, "cover", "2026-05-20", "pending", 1, "", "", "2026-05-01 10:00:00.000000")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id=$1`)).WithArgs(int64(9)).WillReturnRows(rows)

	task, err := d.GetTask(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCover, task.Category)
	assert.True(t, task.FileRequired)
	assert.Equal(t, int64(4), task.ReleaseID)
	assert.Zero(t, task.ParentID)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET status=$1 WHERE id=$2 AND status IN ($3,$4)`)).
		WithArgs("overdue", int64(9), "pending", "in_progress").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := d.TransitionTask(ctx, 9, []model.TaskStatus{model.StatusPending, model.StatusInProgress}, model.StatusOverdue)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
