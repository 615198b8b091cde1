// Package jobs holds the periodic reconciliation passes over the record store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hihikaAAa/label-bot/internal/callback"
	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
	"github.com/hihikaAAa/label-bot/internal/service"
)

const (
	Overdue    = "overdue"
	Reminders  = "reminders"
	Onboarding = "onboarding"
	Pitching   = "pitching"
	SMMDaily   = "smm"
)

// Names lists the jobs in the order the CLI prints them.
var Names = []string{Overdue, Reminders, Onboarding, Pitching, SMMDaily}

var ErrUnknownJob = errors.New("unknown job")

type Jobs struct {
	Store  model.Store
	Notify *notify.Dispatcher
	Loc    *time.Location
	Now    func() time.Time
	// PitchingDays is how far ahead the pitching alert looks.
	PitchingDays int
}

func New(store model.Store, n *notify.Dispatcher, loc *time.Location, pitchingDays int) *Jobs {
	if loc == nil {
		loc = time.Local
	}
	if pitchingDays <= 0 {
		pitchingDays = 3
	}
	return &Jobs{Store: store, Notify: n, Loc: loc, Now: time.Now, PitchingDays: pitchingDays}
}

func (j *Jobs) today() time.Time {
	return model.DateOf(j.Now().In(j.Loc))
}

// Run executes one job by name and returns how many items it acted on.
func (j *Jobs) Run(ctx context.Context, name string) (int, error) {
	switch name {
	case Overdue:
		return j.Overdue(ctx)
	case Reminders:
		return j.DeadlineReminders(ctx)
	case Onboarding:
		return j.Onboarding(ctx)
	case Pitching:
		return j.PitchingAlert(ctx)
	case SMMDaily:
		return j.DailySMM(ctx)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownJob, name)
}

// Overdue marks open tasks past their deadline. Only tasks whose status
// actually changed are reported, so repeated runs stay quiet.
func (j *Jobs) Overdue(ctx context.Context) (int, error) {
	tasks, err := j.Store.ListOverdueCandidates(ctx, j.today())
	if err != nil {
		return 0, fmt.Errorf("overdue candidates: %w", err)
	}
	n := 0
	for _, t := range tasks {
		ok, err := j.Store.TransitionTask(ctx, t.ID, []model.TaskStatus{model.StatusPending, model.StatusInProgress}, model.StatusOverdue)
		if err != nil {
			log.Printf("ERROR mark task %d overdue: %v", t.ID, err)
			continue
		}
		if !ok {
			continue
		}
		n++
		t.Status = model.StatusOverdue
		j.Notify.Notify(ctx, t.AssigneeID, fmt.Sprintf("⚠️ ПРОСРОЧЕНО!\n📌 #%d %s\n⏳ Дедлайн был %s", t.ID, t.Title, model.FormatDate(t.Deadline)), service.TaskActions(t))
	}
	if n > 0 {
		log.Printf("INFO overdue sweep: %d task(s) marked", n)
	}
	return n, nil
}

// DeadlineReminders pings assignees about open tasks due tomorrow.
func (j *Jobs) DeadlineReminders(ctx context.Context) (int, error) {
	tasks, err := j.Store.ListTasksDueOn(ctx, j.today().AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("tasks due tomorrow: %w", err)
	}
	n := 0
	for _, t := range tasks {
		if j.Notify.Notify(ctx, t.AssigneeID, "⏰ Дедлайн завтра!\n\n"+service.TaskCard(t), service.TaskActions(t)) {
			n++
		}
	}
	return n, nil
}

// Onboarding asks each artist's manager about the first unfinished step.
func (j *Jobs) Onboarding(ctx context.Context) (int, error) {
	artists, err := j.Store.ListArtistsPendingOnboarding(ctx)
	if err != nil {
		return 0, fmt.Errorf("artists pending onboarding: %w", err)
	}
	n := 0
	for _, a := range artists {
		check, ok := a.NextPending()
		if !ok {
			continue
		}
		kb := notify.Keyboard{{
			{Text: "✅ Да", Data: callback.OnboardAnswer(a.ID, check, true)},
			{Text: "⏳ Позже", Data: callback.OnboardAnswer(a.ID, check, false)},
		}}
		if j.Notify.Notify(ctx, a.ManagerID, fmt.Sprintf("🎤 %s\n%s %s", a.Name, check.Label(), check.Question()), kb) {
			n++
		}
	}
	return n, nil
}

// PitchingAlert warns founders about releases N days out whose pitching
// task is still not done.
func (j *Jobs) PitchingAlert(ctx context.Context) (int, error) {
	day := j.today().AddDate(0, 0, j.PitchingDays)
	releases, err := j.Store.ListReleasesOn(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("releases on %s: %w", model.FormatDate(day), err)
	}
	var lines []string
	for _, r := range releases {
		t, err := j.Store.FindReleaseTask(ctx, r.ID, model.CategoryPitching)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("ERROR pitching task of release %d: %v", r.ID, err)
			continue
		}
		if t.Status == model.StatusDone {
			continue
		}
		lines = append(lines, fmt.Sprintf("• %s (%s), задача #%d %s", r.FullTitle(), model.FormatDate(r.Date), t.ID, t.Status.Icon()))
	}
	if len(lines) == 0 {
		return 0, nil
	}
	founders, err := j.Store.ListUsersByRole(ctx, model.RoleFounder)
	if err != nil {
		return 0, fmt.Errorf("founders: %w", err)
	}
	ids := make([]int64, 0, len(founders))
	for _, f := range founders {
		ids = append(ids, f.ID)
	}
	text := fmt.Sprintf("🔥 АЛЕРТ: питчинг не сдан, до релиза %d дн.\n%s", j.PitchingDays, strings.Join(lines, "\n"))
	j.Notify.NotifyMany(ctx, ids, text, nil)
	log.Printf("WARN pitching alert: %d release(s)", len(lines))
	return len(lines), nil
}

// DailySMM gives every SMM user one report task per day.
func (j *Jobs) DailySMM(ctx context.Context) (int, error) {
	today := j.today()
	users, err := j.Store.ListUsersByRole(ctx, model.RoleSMM)
	if err != nil {
		return 0, fmt.Errorf("smm users: %w", err)
	}
	n := 0
	for _, u := range users {
		has, err := j.Store.HasTask(ctx, u.ID, model.CategorySMMDaily, today)
		if err != nil {
			log.Printf("ERROR smm task lookup for %d: %v", u.ID, err)
			continue
		}
		if has {
			continue
		}
		t := &model.Task{
			Title:       "📱 Ежедневный отчёт",
			Description: "Отправьте отчёт за день кнопкой «📊 Сдать отчёт».",
			AssigneeID:  u.ID,
			CreatorID:   u.ID,
			Category:    model.CategorySMMDaily,
			Deadline:    today,
			Status:      model.StatusPending,
		}
		if err := j.Store.CreateTask(ctx, t); err != nil {
			log.Printf("ERROR create smm task for %d: %v", u.ID, err)
			continue
		}
		n++
		j.Notify.Notify(ctx, u.ID, "📅 Задача на сегодня\n\n"+service.TaskCard(t), nil)
	}
	return n, nil
}
