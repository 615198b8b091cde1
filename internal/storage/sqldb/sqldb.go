// Package sqldb implements the record store on SQLite or PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hihikaAAa/label-bot/internal/model"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

const tsLayout = "2006-01-02 15:04:05.000000"

type DB struct {
	SQL     *sql.DB
	dialect Dialect
	Now     func() time.Time

	// q is SQL, or the open transaction of a DB handed out by tx.
	q    querier
	inTx bool
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ model.Store = (*DB)(nil)

// Open picks the driver from dsn: postgres:// URLs go to lib/pq, anything
// else is a SQLite file path. The schema is created if missing.
func Open(ctx context.Context, dsn string) (*DB, error) {
	var d *DB
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		d = New(s, Postgres)
	} else {
		s, err := sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, err
		}
		s.SetMaxOpenConns(1)
		d = New(s, SQLite)
	}
	if err := d.SQL.PingContext(ctx); err != nil {
		_ = d.SQL.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := d.Migrate(ctx); err != nil {
		_ = d.SQL.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// sqliteDSN turns on foreign keys and a busy timeout for every connection.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func New(s *sql.DB, dialect Dialect) *DB {
	return &DB{SQL: s, dialect: dialect, Now: time.Now, q: s}
}

// WithTx runs fn against a store bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (d *DB) WithTx(ctx context.Context, fn func(model.Store) error) error {
	return d.tx(ctx, func(t *DB) error { return fn(t) })
}

// tx joins the current transaction if there is one.
func (d *DB) tx(ctx context.Context, fn func(*DB) error) error {
	if d.inTx {
		return fn(d)
	}
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	t := *d
	t.q, t.inTx = tx, true
	if err := fn(&t); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (d *DB) Close() error { return d.SQL.Close() }

func (d *DB) Ping(ctx context.Context) error { return d.SQL.PingContext(ctx) }

func (d *DB) Migrate(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d.dialect == Postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	for _, s := range schema {
		if _, err := d.SQL.ExecContext(ctx, strings.ReplaceAll(s, "{{serial}}", serial)); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		pk {{serial}},
		id BIGINT UNIQUE NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		id {{serial}},
		name TEXT NOT NULL,
		name_key TEXT UNIQUE NOT NULL,
		manager_id BIGINT NOT NULL,
		first_release_date TEXT NOT NULL DEFAULT '',
		flag_contract INTEGER NOT NULL DEFAULT 0,
		flag_mm_profile INTEGER NOT NULL DEFAULT 0,
		flag_mm_verify INTEGER NOT NULL DEFAULT 0,
		flag_yt_link INTEGER NOT NULL DEFAULT 0,
		flag_yt_note INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS releases (
		id {{serial}},
		title TEXT NOT NULL,
		artist_id BIGINT NOT NULL REFERENCES artists(id),
		type TEXT NOT NULL,
		release_date TEXT NOT NULL,
		created_by BIGINT NOT NULL,
		feat TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id {{serial}},
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		assignee_id BIGINT NOT NULL,
		creator_id BIGINT NOT NULL,
		release_id BIGINT REFERENCES releases(id) ON DELETE CASCADE,
		parent_id BIGINT REFERENCES tasks(id) ON DELETE SET NULL,
		category TEXT NOT NULL DEFAULT '',
		deadline TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		file_required INTEGER NOT NULL DEFAULT 0,
		file_url TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee_status ON tasks(assignee_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id {{serial}},
		author_id BIGINT NOT NULL,
		report_date TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS form_sessions (
		user_id BIGINT PRIMARY KEY,
		flow TEXT NOT NULL,
		step TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d *DB) rebind(q string) string {
	if d.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return d.q.ExecContext(ctx, d.rebind(q), args...)
}

func (d *DB) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return d.q.QueryContext(ctx, d.rebind(q), args...)
}

func (d *DB) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return d.q.QueryRowContext(ctx, d.rebind(q), args...)
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (d *DB) insert(ctx context.Context, q string, args ...any) (int64, error) {
	var id int64
	err := d.queryRow(ctx, q+" RETURNING id", args...).Scan(&id)
	return id, err
}

func (d *DB) stamp() string { return d.Now().UTC().Format(tsLayout) }

func changed(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(model.DateLayout, s)
	return t
}

func parseStamp(s string) time.Time {
	t, _ := time.Parse(tsLayout, s)
	return t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func statusArgs(ss []model.TaskStatus) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
