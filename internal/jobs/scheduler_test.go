package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
	"github.com/hihikaAAa/label-bot/internal/notify/notifytest"
	"github.com/hihikaAAa/label-bot/internal/storage/sqldb"
)

func TestUntilHour(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	cases := []struct {
		now  time.Time
		hour int
		want time.Duration
	}{
		{time.Date(2026, 5, 10, 8, 30, 0, 0, loc), 9, 30 * time.Minute},
		{time.Date(2026, 5, 10, 9, 0, 0, 0, loc), 9, 24 * time.Hour},
		{time.Date(2026, 5, 10, 23, 0, 0, 0, loc), 10, 11 * time.Hour},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, untilHour(c.now, c.hour), c.now.String())
	}
}

func TestSchedulerRunsOverdueOnStart(t *testing.T) {
	ctx := context.Background()
	db, err := sqldb.Open(ctx, filepath.Join(t.TempDir(), "label.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.UpsertUser(ctx, &model.User{ID: 300, Role: model.RoleDesigner, Active: true}))
	tk := &model.Task{Title: "Сниппет", AssigneeID: 300, CreatorID: 300, Deadline: model.DateOf(time.Now()).AddDate(0, 0, -1), Status: model.StatusPending}
	require.NoError(t, db.CreateTask(ctx, tk))

	rec := notifytest.NewRecorder()
	s := NewScheduler(New(db, notify.NewDispatcher(rec), time.Local, 3), Schedule{OverdueEvery: time.Hour})
	s.Start(ctx)
	defer s.Close()

	require.Eventually(t, func() bool {
		got, err := db.GetTask(ctx, tk.ID)
		return err == nil && got.Status == model.StatusOverdue
	}, 2*time.Second, 10*time.Millisecond)
	s.Close()
	assert.Len(t, rec.To(300), 1)
}
