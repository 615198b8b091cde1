package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/hihikaAAa/label-bot/internal/model"
)

const artistCols = `id, name, manager_id, first_release_date, flag_contract, flag_mm_profile,
	flag_mm_verify, flag_yt_link, flag_yt_note, created_at`

var flagColumns = map[model.OnboardingCheck]string{
	model.CheckContract:        "flag_contract",
	model.CheckProfileCreated:  "flag_mm_profile",
	model.CheckProfileVerified: "flag_mm_verify",
	model.CheckPromoLinked:     "flag_yt_link",
	model.CheckPromoRequested:  "flag_yt_note",
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func scanArtist(s scanner) (*model.Artist, error) {
	a := &model.Artist{}
	var first, created string
	var f [5]int
	if err := s.Scan(&a.ID, &a.Name, &a.ManagerID, &first, &f[0], &f[1], &f[2], &f[3], &f[4], &created); err != nil {
		return nil, err
	}
	a.FirstReleaseDate = parseDate(first)
	a.Contract, a.ProfileCreated, a.ProfileVerified = f[0] != 0, f[1] != 0, f[2] != 0
	a.PromoLinked, a.PromoRequested = f[3] != 0, f[4] != 0
	a.CreatedAt = parseStamp(created)
	return a, nil
}

func (d *DB) CreateArtist(ctx context.Context, a *model.Artist) error {
	now := d.stamp()
	id, err := d.insert(ctx, `
		INSERT INTO artists (name, name_key, manager_id, first_release_date, flag_contract, flag_mm_profile,
			flag_mm_verify, flag_yt_link, flag_yt_note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, nameKey(a.Name), a.ManagerID, fmtDate(a.FirstReleaseDate),
		boolInt(a.Contract), boolInt(a.ProfileCreated), boolInt(a.ProfileVerified),
		boolInt(a.PromoLinked), boolInt(a.PromoRequested), now)
	if err != nil {
		return err
	}
	a.ID = id
	a.CreatedAt = parseStamp(now)
	return nil
}

func (d *DB) GetArtist(ctx context.Context, id int64) (*model.Artist, error) {
	a, err := scanArtist(d.queryRow(ctx, `SELECT `+artistCols+` FROM artists WHERE id=?`, id))
	return a, notFound(err)
}

// FindArtistByName matches case- and whitespace-insensitively.
func (d *DB) FindArtistByName(ctx context.Context, name string) (*model.Artist, error) {
	a, err := scanArtist(d.queryRow(ctx, `SELECT `+artistCols+` FROM artists WHERE name_key=?`, nameKey(name)))
	return a, notFound(err)
}

func (d *DB) ListArtists(ctx context.Context) ([]*model.Artist, error) {
	return d.listArtists(ctx, `SELECT `+artistCols+` FROM artists ORDER BY name_key`)
}

func (d *DB) ListArtistsPendingOnboarding(ctx context.Context) ([]*model.Artist, error) {
	return d.listArtists(ctx, `SELECT `+artistCols+` FROM artists
		WHERE flag_contract=0 OR flag_mm_profile=0 OR flag_mm_verify=0 OR flag_yt_link=0 OR flag_yt_note=0
		ORDER BY id`)
}

// SetOnboardingFlag raises one flag. It reports false if the flag was already set.
func (d *DB) SetOnboardingFlag(ctx context.Context, artistID int64, check model.OnboardingCheck) (bool, error) {
	col, ok := flagColumns[check]
	if !ok {
		return false, fmt.Errorf("%w: onboarding check %q", model.ErrInvalid, check)
	}
	return changed(d.exec(ctx, `UPDATE artists SET `+col+`=1 WHERE id=? AND `+col+`=0`, artistID))
}

func (d *DB) listArtists(ctx context.Context, q string, args ...any) ([]*model.Artist, error) {
	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
