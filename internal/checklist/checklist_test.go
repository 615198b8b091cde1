package checklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hihikaAAa/label-bot/internal/model"
)

var today = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func categories(specs []Spec) []model.TaskCategory {
	out := make([]model.TaskCategory, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Category)
	}
	return out
}

func count(specs []Spec, c model.TaskCategory) int {
	n := 0
	for _, s := range specs {
		if s.Category == c {
			n++
		}
	}
	return n
}

func TestCoverOnlyWhenNotReady(t *testing.T) {
	for _, days := range []int{0, 5, 14, 15, 60} {
		r := Release{Title: "Echo", Artist: "Nova", Type: model.ReleaseSingle8020, Date: today.AddDate(0, 0, days)}
		r.CoverReady = true
		assert.Zero(t, count(Generate(r, today), model.CategoryCover), days)
		r.CoverReady = false
		assert.Equal(t, 1, count(Generate(r, today), model.CategoryCover), days)
	}
}

func TestPitchingThreshold(t *testing.T) {
	for days, want := range map[int]int{0: 0, 10: 0, 14: 0, 15: 1, 30: 1} {
		r := Release{Title: "Echo", Artist: "Nova", Type: model.ReleaseSingle5050, CoverReady: true, Date: today.AddDate(0, 0, days)}
		assert.Equal(t, want, count(Generate(r, today), model.CategoryPitching), days)
	}
}

func TestScenarioSingleWithoutCover(t *testing.T) {
	r := Release{Title: "Echo", Artist: "Nova", Type: model.ReleaseSingle8020, Date: today.AddDate(0, 0, 30)}
	specs := Generate(r, today)
	require.Len(t, specs, 6)
	assert.Equal(t, []model.TaskCategory{
		model.CategoryDistribution, model.CategoryLyrics, model.CategoryCopyright,
		model.CategorySnippet, model.CategoryCover, model.CategoryPitching,
	}, categories(specs))

	byCat := map[model.TaskCategory]Spec{}
	for _, s := range specs {
		byCat[s.Category] = s
	}
	assert.Equal(t, model.RoleDesigner, byCat[model.CategoryCover].Role)
	assert.True(t, byCat[model.CategoryCover].FileRequired)
	assert.Equal(t, model.CategoryDistribution, byCat[model.CategoryCover].Parent)
	assert.True(t, byCat[model.CategoryPitching].ToCreator)
	assert.Equal(t, -14, byCat[model.CategoryPitching].Offset)
	assert.Equal(t, model.RoleFounder, byCat[model.CategoryCopyright].Role)
	assert.Contains(t, byCat[model.CategoryLyrics].Description, "Nova - Echo")
}

func TestAlbumAddsExtras(t *testing.T) {
	r := Release{Title: "LP", Artist: "Nova", Type: model.ReleaseAlbum, CoverReady: true, Date: today.AddDate(0, 0, 10)}
	specs := Generate(r, today)
	assert.Equal(t, []model.TaskCategory{
		model.CategoryDistribution, model.CategoryLyrics, model.CategoryCopyright, model.CategorySnippet,
		model.CategoryTracklist, model.CategoryMetadata, model.CategoryPromoPlan,
	}, categories(specs))
	for _, s := range specs[4:] {
		assert.Equal(t, model.RoleANR, s.Role)
	}
}

func TestParentsPrecedeChildren(t *testing.T) {
	r := Release{Title: "LP", Artist: "Nova", Type: model.ReleaseAlbum, Date: today.AddDate(0, 0, 90)}
	seen := map[model.TaskCategory]bool{}
	for _, s := range Generate(r, today) {
		if s.Parent != "" {
			assert.True(t, seen[s.Parent], "%s before %s", s.Parent, s.Category)
		}
		seen[s.Category] = true
	}
}

func TestDeadlineClampsToToday(t *testing.T) {
	release := today.AddDate(0, 0, 30)
	assert.Equal(t, today.AddDate(0, 0, 16), Deadline(release, -14, today))

	release = today.AddDate(0, 0, 3)
	assert.Equal(t, today, Deadline(release, -14, today))
	assert.Equal(t, today, Deadline(release, -3, today))

	for off := -30; off <= 0; off++ {
		d := Deadline(today.AddDate(0, 0, 7), off, today)
		assert.False(t, d.Before(today), off)
	}
}
