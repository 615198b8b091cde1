// Package flows defines the bot's conversational forms.
package flows

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hihikaAAa/label-bot/internal/access"
	"github.com/hihikaAAa/label-bot/internal/form"
	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/service"
)

const (
	AddUser       = "add_user"
	AddArtist     = "add_artist"
	CreateRelease = "create_release"
	CreateTask    = "create_task"
	FinishTask    = "finish_task"
	SubmitReport  = "submit_report"
)

// Register adds every flow to e.
func Register(e *form.Engine, svc *service.Service) {
	for _, f := range All(svc) {
		e.Register(f)
	}
}

func All(svc *service.Service) []*form.Flow {
	return []*form.Flow{
		addUser(svc),
		addArtist(svc),
		createRelease(svc),
		createTask(svc),
		finishTask(svc),
		submitReport(svc),
	}
}

func titleCase(s string) string {
	return cases.Title(language.Russian).String(strings.Join(strings.Fields(s), " "))
}

func notPast(svc *service.Service, what string) func(context.Context, *form.Session, form.Input, string) (string, error) {
	return func(_ context.Context, _ *form.Session, _ form.Input, v string) (string, error) {
		d, _ := model.ParseDate(v)
		if d.Before(svc.Today()) {
			return "", form.Invalid("%s не может быть в прошлом.", what)
		}
		return v, nil
	}
}

func userOptions(svc *service.Service, roles ...model.Role) func(context.Context, *form.Session) ([]form.Option, error) {
	return func(ctx context.Context, _ *form.Session) ([]form.Option, error) {
		users, err := svc.Store.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		var opts []form.Option
		for _, u := range users {
			if len(roles) > 0 && !hasRole(u.Role, roles) {
				continue
			}
			opts = append(opts, form.Option{
				Label: fmt.Sprintf("%s (%s)", u.Display(), u.Role.Title()),
				Value: strconv.FormatInt(u.ID, 10),
			})
		}
		return opts, nil
	}
}

func hasRole(r model.Role, roles []model.Role) bool {
	for _, x := range roles {
		if r == x {
			return true
		}
	}
	return false
}

func addUser(svc *service.Service) *form.Flow {
	roles := make([]form.Option, 0, len(model.Roles))
	for _, r := range model.Roles {
		roles = append(roles, form.Option{Label: r.Title(), Value: string(r)})
	}
	return &form.Flow{
		Name:   AddUser,
		Action: access.AddUser,
		Steps: []form.Step{
			{Key: "tg_id", Kind: form.Number, Prompt: form.Static("🆔 Telegram ID нового сотрудника (только цифры):"),
				Accept: func(_ context.Context, _ *form.Session, _ form.Input, v string) (string, error) {
					if n, err := strconv.ParseInt(v, 10, 64); err != nil || n <= 0 {
						return "", form.Invalid("Некорректный ID.")
					}
					return v, nil
				}},
			{Key: "name", Kind: form.Text, Prompt: form.Static("👤 Имя сотрудника:"),
				Accept: func(_ context.Context, _ *form.Session, _ form.Input, v string) (string, error) {
					return titleCase(v), nil
				}},
			{Key: "role", Kind: form.Choice, Prompt: form.Static("🎭 Роль:", roles...)},
		},
		Commit: func(ctx context.Context, user *model.User, s *form.Session) (string, error) {
			u, err := svc.AddUser(ctx, user, s.Int("tg_id"), s.Get("name"), model.Role(s.Get("role")))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ %s добавлен(а) как %s.", u.Display(), u.Role.Title()), nil
		},
	}
}

func addArtist(svc *service.Service) *form.Flow {
	managers := userOptions(svc, model.RoleFounder, model.RoleANR)
	return &form.Flow{
		Name:   AddArtist,
		Action: access.AddArtist,
		Steps: []form.Step{
			{Key: "name", Kind: form.Text, Prompt: form.Static("🎤 Имя артиста:"),
				Accept: func(ctx context.Context, _ *form.Session, _ form.Input, v string) (string, error) {
					_, err := svc.Store.FindArtistByName(ctx, v)
					if err == nil {
						return "", form.Invalid("Артист «%s» уже есть.", v)
					}
					if !errors.Is(err, model.ErrNotFound) {
						return "", err
					}
					return v, nil
				}},
			{Key: "manager", Kind: form.Choice, Prompt: func(ctx context.Context, s *form.Session) (form.Prompt, error) {
				opts, err := managers(ctx, s)
				return form.Prompt{Text: "🧑‍💼 Ответственный менеджер:", Options: opts}, err
			}},
			{Key: "first_release", Kind: form.Date, Optional: true, Prompt: form.Static("📅 Дата первого релиза (ГГГГ-ММ-ДД):")},
		},
		Commit: func(ctx context.Context, user *model.User, s *form.Session) (string, error) {
			a, err := svc.AddArtist(ctx, user, s.Get("name"), s.Int("manager"), s.Date("first_release"))
			if errors.Is(err, model.ErrInvalid) {
				return "", form.Invalid("Артист «%s» уже есть.", s.Get("name"))
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Артист «%s» добавлен.", a.Name), nil
		},
	}
}

func createRelease(svc *service.Service) *form.Flow {
	types := make([]form.Option, 0, len(model.ReleaseTypes))
	for _, t := range model.ReleaseTypes {
		types = append(types, form.Option{Label: t.Title(), Value: string(t)})
	}
	return &form.Flow{
		Name:   CreateRelease,
		Action: access.CreateRelease,
		Steps: []form.Step{
			{Key: "artist", Kind: form.Text, Prompt: form.Static("🎤 Артист:")},
			{Key: "title", Kind: form.Text, Prompt: form.Static("💿 Название релиза:")},
			{Key: "type", Kind: form.Choice, Prompt: form.Static("📼 Тип релиза:", types...)},
			{Key: "cover", Kind: form.Choice, Prompt: form.Static("🎨 Обложка готова?", form.YesNo("✅ Есть", "❌ Нужно сделать")...)},
			{Key: "feat", Kind: form.Text, Optional: true, Prompt: form.Static("🤝 Фит (соисполнители):")},
			{Key: "date", Kind: form.Date, Prompt: form.Static("📅 Дата релиза (ГГГГ-ММ-ДД):"), Accept: notPast(svc, "Дата релиза")},
		},
		Commit: func(ctx context.Context, user *model.User, s *form.Session) (string, error) {
			rel, tasks, err := svc.CreateRelease(ctx, user, service.ReleaseInput{
				Artist:     s.Get("artist"),
				Title:      s.Get("title"),
				Type:       model.ReleaseType(s.Get("type")),
				CoverReady: s.Bool("cover"),
				Feat:       s.Get("feat"),
				Date:       s.Date("date"),
			})
			if errors.Is(err, model.ErrInvalid) {
				return "", form.Invalid("Дата релиза не может быть в прошлом.")
			}
			if err != nil {
				return "", err
			}
			var b strings.Builder
			fmt.Fprintf(&b, "🚀 Релиз создан!\n🎶 %s (%s)\n📅 %s\n\nЗадачи (%d):", rel.FullTitle(), rel.Type.Title(), model.FormatDate(rel.Date), len(tasks))
			for _, t := range tasks {
				fmt.Fprintf(&b, "\n• %s, до %s", t.Title, model.FormatDate(t.Deadline))
			}
			return b.String(), nil
		},
	}
}

func createTask(svc *service.Service) *form.Flow {
	assignees := userOptions(svc)
	return &form.Flow{
		Name:   CreateTask,
		Action: access.CreateTask,
		Steps: []form.Step{
			{Key: "title", Kind: form.Text, Prompt: form.Static("📌 Название задачи:")},
			{Key: "description", Kind: form.Text, Optional: true, Prompt: form.Static("📝 Описание:")},
			{Key: "assignee", Kind: form.Choice, Prompt: func(ctx context.Context, s *form.Session) (form.Prompt, error) {
				opts, err := assignees(ctx, s)
				return form.Prompt{Text: "👤 Исполнитель:", Options: opts}, err
			}},
			{Key: "deadline", Kind: form.Date, Prompt: form.Static("📅 Дедлайн (ГГГГ-ММ-ДД):"), Accept: notPast(svc, "Дедлайн")},
			{Key: "needs_file", Kind: form.Choice, Prompt: form.Static("📎 Для сдачи нужен файл?", form.YesNo("📎 Да, файл", "💬 Нет, комментарий")...)},
		},
		Commit: func(ctx context.Context, user *model.User, s *form.Session) (string, error) {
			t, err := svc.CreateTask(ctx, user, service.TaskInput{
				Title:        s.Get("title"),
				Description:  s.Get("description"),
				AssigneeID:   s.Int("assignee"),
				Deadline:     s.Date("deadline"),
				FileRequired: s.Bool("needs_file"),
			})
			if errors.Is(err, model.ErrInvalid) {
				return "", form.Invalid("Дедлайн не может быть в прошлом.")
			}
			if err != nil {
				return "", err
			}
			return "✅ Задача создана.\n\n" + service.TaskCard(t), nil
		},
	}
}

func finishTask(svc *service.Service) *form.Flow {
	return &form.Flow{
		Name:   FinishTask,
		Action: access.FinishTask,
		Begin: func(ctx context.Context, user *model.User, s *form.Session) error {
			t, err := svc.CheckFinishable(ctx, user, s.Int("task_id"))
			if err != nil {
				return err
			}
			s.Set("title", t.Title)
			if t.FileRequired {
				s.Set("file_required", form.Yes)
			}
			return nil
		},
		First: func(s *form.Session) string {
			if s.Bool("file_required") {
				return "file"
			}
			return "comment"
		},
		Steps: []form.Step{
			{Key: "file", Kind: form.File,
				Prompt: func(_ context.Context, s *form.Session) (form.Prompt, error) {
					return form.Prompt{Text: fmt.Sprintf("📎 Задача «%s» сдаётся файлом. Пришлите документ или фото:", s.Get("title"))}, nil
				},
				Accept: func(ctx context.Context, _ *form.Session, in form.Input, _ string) (string, error) {
					return svc.StoreAttachment(ctx, *in.File), nil
				},
				Next: func(*form.Session) string { return form.End }},
			{Key: "comment", Kind: form.Text,
				Prompt: func(_ context.Context, s *form.Session) (form.Prompt, error) {
					return form.Prompt{Text: fmt.Sprintf("💬 Комментарий к задаче «%s»:", s.Get("title"))}, nil
				}},
		},
		Commit: func(ctx context.Context, user *model.User, s *form.Session) (string, error) {
			t, err := svc.CompleteTask(ctx, user, s.Int("task_id"), s.Get("file"), s.Get("comment"))
			if errors.Is(err, model.ErrFileRequired) {
				return "", form.Invalid("Без файла эту задачу закрыть нельзя.")
			}
			if errors.Is(err, model.ErrAlreadyHandled) || errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrForbidden) {
				return fmt.Sprintf("ℹ️ Задача «%s» уже закрыта, удалена или передана другому.", s.Get("title")), nil
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Задача #%d «%s» выполнена!", t.ID, t.Title), nil
		},
	}
}

func submitReport(svc *service.Service) *form.Flow {
	return &form.Flow{
		Name:   SubmitReport,
		Action: access.SubmitReport,
		Steps: []form.Step{
			{Key: "text", Kind: form.Text, Prompt: form.Static("📝 Текст отчёта за сегодня (что сделано, метрики):")},
		},
		Commit: func(ctx context.Context, user *model.User, s *form.Session) (string, error) {
			if _, err := svc.SubmitReport(ctx, user, s.Get("text")); err != nil {
				return "", err
			}
			return "✅ Отчёт принят!", nil
		},
	}
}
