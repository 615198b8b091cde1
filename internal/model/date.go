package model

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, "02-01-2006"}

// ParseDate accepts YYYY-MM-DD, YYYY.MM.DD, YYYY/MM/DD and the day-first
// variants of the same, returning midnight UTC of that calendar day.
func ParseDate(s string) (time.Time, error) {
	clean := strings.NewReplacer(".", "-", "/", "-").Replace(strings.TrimSpace(s))
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, clean); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalid, s)
}

// DateOf drops the clock part of t as seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

func FormatDate(d time.Time) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format(DateLayout)
}
