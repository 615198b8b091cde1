package lib

import (
	"context"
	"fmt"
	"strings"

	"github.com/hihikaAAa/label-bot/internal/access"
	"github.com/hihikaAAa/label-bot/internal/callback"
	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
)

const (
	releasesPerPage = 5
	historyLimit    = 20
	reportsLimit    = 10
)

// view is a rendered screen: text plus optional inline buttons.
type view struct {
	Text string
	KB   notify.Keyboard
}

func (b *Bot) usersView(ctx context.Context, viewer *model.User) (view, error) {
	users, err := b.Svc.Store.ListUsers(ctx)
	if err != nil {
		return view{}, err
	}
	if len(users) == 0 {
		return view{Text: "Сотрудников пока нет."}, nil
	}
	var sb strings.Builder
	var kb notify.Keyboard
	sb.WriteString("👥 Сотрудники:\n")
	for _, u := range users {
		fmt.Fprintf(&sb, "• %s [%d] %s\n", u.Display(), u.ID, u.Role.Title())
		if u.ID != viewer.ID && u.Role != model.RoleFounder && access.Allowed(viewer.Role, access.DeleteUser) {
			kb = append(kb, []notify.Button{{Text: "❌ " + u.Display(), Data: callback.ID(callback.RemoveUser, u.ID)}})
		}
	}
	return view{Text: sb.String(), KB: kb}, nil
}

func (b *Bot) artistsView(ctx context.Context) (view, error) {
	artists, err := b.Svc.Store.ListArtists(ctx)
	if err != nil {
		return view{}, err
	}
	if len(artists) == 0 {
		return view{Text: "Артистов пока нет."}, nil
	}
	var kb notify.Keyboard
	for _, a := range artists {
		label := a.Name
		if badges := a.Badges(); badges != "" {
			label += " " + badges
		}
		kb = append(kb, []notify.Button{{Text: label, Data: callback.ID(callback.ArtistCard, a.ID)}})
	}
	return view{Text: fmt.Sprintf("🎤 Артисты (%d). Выберите карточку:", len(artists)), KB: kb}, nil
}

func (b *Bot) artistCard(ctx context.Context, viewer *model.User, id int64) (view, error) {
	a, err := b.Svc.Store.GetArtist(ctx, id)
	if err != nil {
		return view{}, err
	}
	manager := "-"
	if u, err := b.Svc.Store.GetUser(ctx, a.ManagerID); err == nil {
		manager = u.Display()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎤 %s\n👤 Менеджер: %s\n📅 Первый релиз: %s\n\n", a.Name, manager, model.FormatDate(a.FirstReleaseDate))
	var kb notify.Keyboard
	canEdit := viewer.Role == model.RoleFounder || viewer.ID == a.ManagerID
	for _, c := range model.OnboardingChecks {
		mark := "⬜"
		if a.Done(c) {
			mark = "✅"
		} else if canEdit {
			kb = append(kb, []notify.Button{{Text: "Отметить: " + c.Label(), Data: callback.OnboardAnswer(a.ID, c, true)}})
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, c.Label())
	}
	return view{Text: sb.String(), KB: kb}, nil
}

func (b *Bot) onboardingView(ctx context.Context, viewer *model.User) (view, error) {
	artists, err := b.Svc.Store.ListArtistsPendingOnboarding(ctx)
	if err != nil {
		return view{}, err
	}
	var sb strings.Builder
	var kb notify.Keyboard
	for _, a := range artists {
		if viewer.Role != model.RoleFounder && a.ManagerID != viewer.ID {
			continue
		}
		c, _ := a.NextPending()
		fmt.Fprintf(&sb, "• %s: %s\n", a.Name, c.Label())
		kb = append(kb, []notify.Button{{Text: a.Name, Data: callback.ID(callback.ArtistCard, a.ID)}})
	}
	if len(kb) == 0 {
		return view{Text: "🧩 Онбординг всех артистов завершён."}, nil
	}
	return view{Text: "🧩 Незавершённый онбординг:\n" + sb.String(), KB: kb}, nil
}

// releasesView renders one page; founders see every release, others their own.
func (b *Bot) releasesView(ctx context.Context, viewer *model.User, page int) (view, error) {
	if page < 0 {
		page = 0
	}
	var owner int64
	if !access.Allowed(viewer.Role, access.ReleasesAll) {
		owner = viewer.ID
	}
	list, total, err := b.Svc.Store.ListReleases(ctx, owner, page*releasesPerPage, releasesPerPage)
	if err != nil {
		return view{}, err
	}
	if total == 0 {
		return view{Text: "Релизов пока нет."}, nil
	}
	pages := (total + releasesPerPage - 1) / releasesPerPage
	var sb strings.Builder
	fmt.Fprintf(&sb, "💿 Релизы (стр. %d/%d):\n", page+1, pages)
	var kb notify.Keyboard
	for _, r := range list {
		fmt.Fprintf(&sb, "• #%d %s | %s | %s\n", r.ID, r.FullTitle(), r.Type.Title(), model.FormatDate(r.Date))
		if access.Allowed(viewer.Role, access.DeleteRelease) {
			kb = append(kb, []notify.Button{{Text: fmt.Sprintf("🗑 #%d %s", r.ID, r.Title), Data: callback.ID(callback.DeleteRelease, r.ID)}})
		}
	}
	var nav []notify.Button
	if page > 0 {
		nav = append(nav, notify.Button{Text: "⬅️", Data: callback.ID(callback.ReleasePage, int64(page-1))})
	}
	if page+1 < pages {
		nav = append(nav, notify.Button{Text: "➡️", Data: callback.ID(callback.ReleasePage, int64(page+1))})
	}
	if len(nav) > 0 {
		kb = append(kb, nav)
	}
	return view{Text: sb.String(), KB: kb}, nil
}

func (b *Bot) names(ctx context.Context) map[int64]string {
	out := map[int64]string{}
	users, err := b.Svc.Store.ListUsers(ctx)
	if err != nil {
		return out
	}
	for _, u := range users {
		out[u.ID] = u.Display()
	}
	return out
}

func taskLine(t *model.Task, names map[int64]string) string {
	line := fmt.Sprintf("%s #%d %s | %s", t.Status.Icon(), t.ID, t.Title, model.FormatDate(t.Deadline))
	if names != nil {
		who, ok := names[t.AssigneeID]
		if !ok {
			who = fmt.Sprintf("id%d", t.AssigneeID)
		}
		line += " | " + who
	}
	return line
}

func (b *Bot) allTasksView(ctx context.Context) (view, error) {
	tasks, err := b.Svc.Store.ListOpenTasks(ctx, 0)
	if err != nil {
		return view{}, err
	}
	if len(tasks) == 0 {
		return view{Text: "Активных задач нет."}, nil
	}
	names := b.names(ctx)
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Активные задачи (%d):\n", len(tasks))
	for _, t := range tasks {
		sb.WriteString(taskLine(t, names) + "\n")
	}
	return view{Text: sb.String()}, nil
}

func (b *Bot) historyView(ctx context.Context, viewer *model.User, all bool) (view, error) {
	var assignee int64
	var names map[int64]string
	if all {
		names = b.names(ctx)
	} else {
		assignee = viewer.ID
	}
	tasks, err := b.Svc.Store.ListHistory(ctx, assignee, historyLimit)
	if err != nil {
		return view{}, err
	}
	if len(tasks) == 0 {
		return view{Text: "История пуста."}, nil
	}
	var sb strings.Builder
	sb.WriteString("📜 История:\n")
	for _, t := range tasks {
		sb.WriteString(taskLine(t, names) + "\n")
		if t.FileURL != "" {
			if _, ok := model.ParseRef(t.FileURL); !ok {
				sb.WriteString("   📎 " + t.FileURL + "\n")
			}
		}
	}
	return view{Text: sb.String()}, nil
}

func (b *Bot) reportsView(ctx context.Context, viewer *model.User, all bool) (view, error) {
	var author int64
	if !all {
		author = viewer.ID
	}
	reports, err := b.Svc.Store.ListReports(ctx, author, 0, reportsLimit)
	if err != nil {
		return view{}, err
	}
	if len(reports) == 0 {
		return view{Text: "Отчётов пока нет."}, nil
	}
	names := b.names(ctx)
	var sb strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&sb, "📊 %s, %s\n%s\n\n", model.FormatDate(r.Date), names[r.AuthorID], r.Text)
	}
	return view{Text: strings.TrimSpace(sb.String())}, nil
}

func (b *Bot) statsView(ctx context.Context) (view, error) {
	st, err := b.Svc.Stats(ctx)
	if err != nil {
		return view{}, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 Статистика\n👥 Сотрудники: %d\n🎤 Артисты: %d\n💿 Релизы: %d\n📊 Отчёты: %d\n\nЗадачи:\n",
		st.Users, st.Artists, st.Releases, st.Reports)
	for _, s := range []model.TaskStatus{model.StatusPending, model.StatusInProgress, model.StatusOverdue, model.StatusDone, model.StatusRejected} {
		fmt.Fprintf(&sb, "%s %s: %d\n", s.Icon(), s, st.Tasks[s])
	}
	return view{Text: sb.String()}, nil
}
