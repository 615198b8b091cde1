package sqldb

import (
	"context"
	"time"

	"github.com/hihikaAAa/label-bot/internal/model"
)

const releaseSelect = `SELECT r.id, r.title, r.artist_id, a.name, r.type, r.release_date, r.created_by, r.feat, r.created_at
	FROM releases r JOIN artists a ON a.id = r.artist_id`

func scanRelease(s scanner) (*model.Release, error) {
	r := &model.Release{}
	var typ, date, created string
	if err := s.Scan(&r.ID, &r.Title, &r.ArtistID, &r.ArtistName, &typ, &date, &r.CreatedBy, &r.Feat, &created); err != nil {
		return nil, err
	}
	r.Type = model.ReleaseType(typ)
	r.Date = parseDate(date)
	r.CreatedAt = parseStamp(created)
	return r, nil
}

func (d *DB) CreateRelease(ctx context.Context, r *model.Release) error {
	now := d.stamp()
	id, err := d.insert(ctx, `
		INSERT INTO releases (title, artist_id, type, release_date, created_by, feat, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.ArtistID, string(r.Type), fmtDate(r.Date), r.CreatedBy, r.Feat, now)
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedAt = parseStamp(now)
	return nil
}

func (d *DB) GetRelease(ctx context.Context, id int64) (*model.Release, error) {
	r, err := scanRelease(d.queryRow(ctx, releaseSelect+` WHERE r.id=?`, id))
	return r, notFound(err)
}

func (d *DB) ListReleases(ctx context.Context, createdBy int64, offset, limit int) ([]*model.Release, int, error) {
	where, args := "", []any{}
	if createdBy != 0 {
		where, args = ` WHERE r.created_by=?`, append(args, createdBy)
	}
	var total int
	if err := d.queryRow(ctx, `SELECT COUNT(*) FROM releases r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	list, err := d.listReleases(ctx, releaseSelect+where+` ORDER BY r.release_date DESC, r.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	return list, total, err
}

func (d *DB) ListReleasesOn(ctx context.Context, day time.Time) ([]*model.Release, error) {
	return d.listReleases(ctx, releaseSelect+` WHERE r.release_date=? ORDER BY r.id`, fmtDate(day))
}

// DeleteRelease removes the release and all its tasks in one transaction.
func (d *DB) DeleteRelease(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := d.tx(ctx, func(t *DB) error {
		if _, err := t.exec(ctx, `DELETE FROM tasks WHERE release_id=?`, id); err != nil {
			return err
		}
		var err error
		ok, err = changed(t.exec(ctx, `DELETE FROM releases WHERE id=?`, id))
		return err
	})
	return ok, err
}

func (d *DB) listReleases(ctx context.Context, q string, args ...any) ([]*model.Release, error) {
	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Release
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
