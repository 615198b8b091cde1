package sqldb

import (
	"context"

	"github.com/hihikaAAa/label-bot/internal/model"
)

func (d *DB) CreateReport(ctx context.Context, r *model.Report) error {
	now := d.stamp()
	id, err := d.insert(ctx, `INSERT INTO reports (author_id, report_date, text, created_at) VALUES (?, ?, ?, ?)`,
		r.AuthorID, fmtDate(r.Date), r.Text, now)
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedAt = parseStamp(now)
	return nil
}

func (d *DB) ListReports(ctx context.Context, author int64, offset, limit int) ([]*model.Report, error) {
	q := `SELECT id, author_id, report_date, text, created_at FROM reports`
	var args []any
	if author != 0 {
		q += ` WHERE author_id=?`
		args = append(args, author)
	}
	rows, err := d.query(ctx, q+` ORDER BY report_date DESC, id DESC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Report
	for rows.Next() {
		r := &model.Report{}
		var date, created string
		if err := rows.Scan(&r.ID, &r.AuthorID, &date, &r.Text, &created); err != nil {
			return nil, err
		}
		r.Date = parseDate(date)
		r.CreatedAt = parseStamp(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) Stats(ctx context.Context) (*model.Stats, error) {
	st := &model.Stats{Tasks: map[model.TaskStatus]int{}}
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"users", &st.Users},
		{"artists", &st.Artists},
		{"releases", &st.Releases},
		{"reports", &st.Reports},
	} {
		if err := d.queryRow(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dst); err != nil {
			return nil, err
		}
	}
	rows, err := d.query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		st.Tasks[model.TaskStatus(status)] = n
	}
	return st, rows.Err()
}
