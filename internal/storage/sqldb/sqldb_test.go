package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hihikaAAa/label-bot/internal/form"
	"github.com/hihikaAAa/label-bot/internal/model"
)

var (
	ctx   = context.Background()
	today = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(ctx, filepath.Join(t.TempDir(), "label.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func seedRelease(t *testing.T, d *DB) (*model.Artist, *model.Release) {
	t.Helper()
	a := &model.Artist{Name: "Nova", ManagerID: 200}
	require.NoError(t, d.CreateArtist(ctx, a))
	r := &model.Release{Title: "Echo", ArtistID: a.ID, Type: model.ReleaseSingle8020, Date: today.AddDate(0, 0, 30), CreatedBy: 200}
	require.NoError(t, d.CreateRelease(ctx, r))
	return a, r
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := openTest(t)
	require.NoError(t, d.Migrate(ctx))
	require.NoError(t, d.Ping(ctx))
}

func TestUsersKeepInsertionOrder(t *testing.T) {
	d := openTest(t)
	for _, u := range []*model.User{
		{ID: 900, Name: "Zed", Role: model.RoleDesigner, Active: true},
		{ID: 100, Name: "Boss", Role: model.RoleFounder, Active: true},
		{ID: 300, Name: "Ann", Role: model.RoleDesigner, Active: true},
	} {
		require.NoError(t, d.UpsertUser(ctx, u))
	}
	first, err := d.FirstUserWithRole(ctx, model.RoleDesigner)
	require.NoError(t, err)
	assert.Equal(t, int64(900), first.ID)

	designers, err := d.ListUsersByRole(ctx, model.RoleDesigner)
	require.NoError(t, err)
	require.Len(t, designers, 2)
	assert.Equal(t, int64(300), designers[1].ID)

	_, err = d.FirstUserWithRole(ctx, model.RoleSMM)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, d.UpsertUser(ctx, &model.User{ID: 900, Name: "Zed", Role: model.RoleANR, Active: true}))
	u, err := d.GetUser(ctx, 900)
	require.NoError(t, err)
	assert.Equal(t, model.RoleANR, u.Role)

	require.NoError(t, d.UpdateUsername(ctx, 900, "zed_music"))
	u, _ = d.GetUser(ctx, 900)
	assert.Equal(t, "zed_music", u.Username)

	ok, err := d.DeleteUser(ctx, 900)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = d.DeleteUser(ctx, 900)
	assert.False(t, ok)
	_, err = d.GetUser(ctx, 900)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestArtistLookupAndFlags(t *testing.T) {
	d := openTest(t)
	a := &model.Artist{Name: "Ночной  Город", ManagerID: 200}
	require.NoError(t, d.CreateArtist(ctx, a))

	found, err := d.FindArtistByName(ctx, "ночной город")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.Error(t, d.CreateArtist(ctx, &model.Artist{Name: "НОЧНОЙ ГОРОД", ManagerID: 1}))

	ok, err := d.SetOnboardingFlag(ctx, a.ID, model.CheckContract)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.SetOnboardingFlag(ctx, a.ID, model.CheckContract)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := d.GetArtist(ctx, a.ID)
	next, _ := got.NextPending()
	assert.Equal(t, model.CheckProfileCreated, next)

	for _, c := range model.OnboardingChecks {
		_, err := d.SetOnboardingFlag(ctx, a.ID, c)
		require.NoError(t, err)
	}
	pending, err := d.ListArtistsPendingOnboarding(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReleasesPaginate(t *testing.T) {
	d := openTest(t)
	a := &model.Artist{Name: "Nova", ManagerID: 200}
	require.NoError(t, d.CreateArtist(ctx, a))
	for i := 0; i < 7; i++ {
		by := int64(200)
		if i%2 == 1 {
			by = 100
		}
		require.NoError(t, d.CreateRelease(ctx, &model.Release{
			Title: "R", ArtistID: a.ID, Type: model.ReleaseAlbum, Date: today.AddDate(0, 0, i), CreatedBy: by,
		}))
	}
	page, total, err := d.ListReleases(ctx, 0, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, page, 2)

	own, total, err := d.ListReleases(ctx, 200, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, "Nova", own[0].ArtistName)
	assert.True(t, own[0].Date.After(own[1].Date))

	on, err := d.ListReleasesOn(ctx, today.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, on, 1)
}

func TestDeleteReleaseCascades(t *testing.T) {
	d := openTest(t)
	_, r := seedRelease(t, d)
	parent := &model.Task{Title: "dist", AssigneeID: 200, CreatorID: 200, ReleaseID: r.ID, Deadline: today}
	require.NoError(t, d.CreateTask(ctx, parent))
	child := &model.Task{Title: "cover", AssigneeID: 300, CreatorID: 200, ReleaseID: r.ID, ParentID: parent.ID, Deadline: today}
	require.NoError(t, d.CreateTask(ctx, child))
	manual := &model.Task{Title: "call", AssigneeID: 300, CreatorID: 100, Deadline: today}
	require.NoError(t, d.CreateTask(ctx, manual))

	ok, err := d.DeleteRelease(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	open, err := d.ListOpenTasks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, manual.ID, open[0].ID)
	_, err = d.GetRelease(ctx, r.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	ok, err = d.DeleteRelease(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransitionIsConditional(t *testing.T) {
	d := openTest(t)
	task := &model.Task{Title: "x", AssigneeID: 300, CreatorID: 100, Deadline: today.AddDate(0, 0, -1)}
	require.NoError(t, d.CreateTask(ctx, task))
	assert.Equal(t, model.StatusPending, task.Status)

	cands, err := d.ListOverdueCandidates(ctx, today)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	from := []model.TaskStatus{model.StatusPending, model.StatusInProgress}
	ok, err := d.TransitionTask(ctx, task.ID, from, model.StatusOverdue)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.TransitionTask(ctx, task.ID, from, model.StatusOverdue)
	require.NoError(t, err)
	assert.False(t, ok)

	cands, _ = d.ListOverdueCandidates(ctx, today)
	assert.Empty(t, cands)
}

func TestCompleteRequiresFileWhenFlagged(t *testing.T) {
	d := openTest(t)
	task := &model.Task{Title: "cover", AssigneeID: 300, CreatorID: 100, Deadline: today, FileRequired: true}
	require.NoError(t, d.CreateTask(ctx, task))

	ok, err := d.CompleteTask(ctx, task.ID, "", "done without file")
	require.NoError(t, err)
	assert.False(t, ok)
	got, _ := d.GetTask(ctx, task.ID)
	assert.Equal(t, model.StatusPending, got.Status)

	ok, err = d.CompleteTask(ctx, task.ID, "https://disk/cover.png", "")
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = d.GetTask(ctx, task.ID)
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, "https://disk/cover.png", got.FileURL)

	ok, _ = d.CompleteTask(ctx, task.ID, "https://disk/again.png", "")
	assert.False(t, ok)

	hist, err := d.ListHistory(ctx, 300, 20)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestTaskLookups(t *testing.T) {
	d := openTest(t)
	_, r := seedRelease(t, d)
	tomorrow := today.AddDate(0, 0, 1)
	pitch := &model.Task{Title: "pitch", AssigneeID: 200, CreatorID: 200, ReleaseID: r.ID, Category: model.CategoryPitching, Deadline: tomorrow}
	require.NoError(t, d.CreateTask(ctx, pitch))
	smm := &model.Task{Title: "post", AssigneeID: 400, CreatorID: 400, Category: model.CategorySMMDaily, Deadline: today}
	require.NoError(t, d.CreateTask(ctx, smm))

	found, err := d.FindReleaseTask(ctx, r.ID, model.CategoryPitching)
	require.NoError(t, err)
	assert.Equal(t, pitch.ID, found.ID)
	_, err = d.FindReleaseTask(ctx, r.ID, model.CategoryCover)
	assert.ErrorIs(t, err, model.ErrNotFound)

	due, err := d.ListTasksDueOn(ctx, tomorrow)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, r.ID, due[0].ReleaseID)
	assert.Zero(t, due[0].ParentID)

	has, err := d.HasTask(ctx, 400, model.CategorySMMDaily, today)
	require.NoError(t, err)
	assert.True(t, has)
	has, _ = d.HasTask(ctx, 400, model.CategorySMMDaily, tomorrow)
	assert.False(t, has)
}

func TestReportsNewestFirst(t *testing.T) {
	d := openTest(t)
	for i, text := range []string{"old", "new", "mid"} {
		days := []int{-5, 0, -2}[i]
		require.NoError(t, d.CreateReport(ctx, &model.Report{AuthorID: 400, Date: today.AddDate(0, 0, days), Text: text}))
	}
	require.NoError(t, d.CreateReport(ctx, &model.Report{AuthorID: 401, Date: today, Text: "other"}))

	mine, err := d.ListReports(ctx, 400, 0, 10)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{mine[0].Text, mine[1].Text, mine[2].Text})

	all, _ := d.ListReports(ctx, 0, 0, 10)
	assert.Len(t, all, 4)

	st, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Reports)
}

func TestSessionsPersistAnswers(t *testing.T) {
	d := openTest(t)
	store := d.Sessions()
	s, err := store.Load(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, s)

	now := time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, &form.Session{UserID: 100, Flow: "create_release", Step: "title", Answers: map[string]string{"artist": "Nova"}, UpdatedAt: now}))
	require.NoError(t, store.Save(ctx, &form.Session{UserID: 100, Flow: "create_task", Step: "title", Answers: map[string]string{}, UpdatedAt: now}))

	s, err = store.Load(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "create_task", s.Flow)
	assert.Empty(t, s.Answers)
	assert.True(t, now.Equal(s.UpdatedAt))

	require.NoError(t, store.Delete(ctx, 100))
	s, _ = store.Load(ctx, 100)
	assert.Nil(t, s)
}

func TestWithTxRollsBackEveryWrite(t *testing.T) {
	d := openTest(t)
	boom := errors.New("boom")
	err := d.WithTx(ctx, func(st model.Store) error {
		a := &model.Artist{Name: "Nova", ManagerID: 200}
		require.NoError(t, st.CreateArtist(ctx, a))
		r := &model.Release{Title: "Echo", ArtistID: a.ID, Type: model.ReleaseSingle8020, Date: today, CreatedBy: 200}
		require.NoError(t, st.CreateRelease(ctx, r))
		// nested calls join the outer transaction
		return st.WithTx(ctx, func(inner model.Store) error {
			got, err := inner.FindArtistByName(ctx, "nova")
			require.NoError(t, err)
			assert.Equal(t, a.ID, got.ID)
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	_, err = d.FindArtistByName(ctx, "Nova")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, total, err := d.ListReleases(ctx, 0, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWithTxCommits(t *testing.T) {
	d := openTest(t)
	require.NoError(t, d.WithTx(ctx, func(st model.Store) error {
		return st.CreateArtist(ctx, &model.Artist{Name: "Nova", ManagerID: 200})
	}))
	_, err := d.FindArtistByName(ctx, "Nova")
	assert.NoError(t, err)
}
