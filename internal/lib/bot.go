package lib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hihikaAAa/label-bot/internal/access"
	"github.com/hihikaAAa/label-bot/internal/callback"
	"github.com/hihikaAAa/label-bot/internal/flows"
	"github.com/hihikaAAa/label-bot/internal/form"
	"github.com/hihikaAAa/label-bot/internal/jobs"
	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
	"github.com/hihikaAAa/label-bot/internal/service"
)

type Bot struct {
	API   API
	Svc   *service.Service
	Forms *form.Engine
	Jobs  *jobs.Jobs
}

func NewBot(api API, svc *service.Service, forms *form.Engine, j *jobs.Jobs) *Bot {
	return &Bot{API: api, Svc: svc, Forms: forms, Jobs: j}
}

// Start long-polls Telegram until ctx is cancelled. Updates are handled one
// at a time, so a user never races with their own form.
func (b *Bot) Start(ctx context.Context) error {
	upd := tgbotapi.NewUpdate(0)
	upd.Timeout = 30
	updates := b.API.GetUpdatesChan(upd)
	for {
		select {
		case <-ctx.Done():
			b.API.StopReceivingUpdates()
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR panic in update %d: %v", u.UpdateID, r)
		}
	}()
	switch {
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	}
}

func fullName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil {
		return
	}
	chatID := m.Chat.ID
	user, err := b.Svc.EnsureUser(ctx, m.From.ID, m.From.UserName, fullName(m.From))
	if err != nil {
		b.denied(chatID, m.From.ID, err)
		return
	}
	text := strings.TrimSpace(m.Text)

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			b.showMenu(chatID, user, fmt.Sprintf("👋 Привет, %s!\nВаша роль: %s", user.Display(), user.Role.Title()))
		case "menu":
			b.showMenu(chatID, user, "Меню:")
		case "cancel":
			b.cancel(ctx, chatID, user)
		default:
			b.reply(chatID, "Неизвестная команда. Откройте /menu")
		}
		return
	}
	if text == cancelLabel {
		b.cancel(ctx, chatID, user)
		return
	}
	if anyLabel(text) {
		action, ok := actionFor(user.Role, text)
		if !ok || !access.Allowed(user.Role, action) {
			b.reply(chatID, "⛔️ Нет доступа.")
			return
		}
		b.do(ctx, chatID, user, action)
		return
	}

	in := form.Input{Text: text, File: attachmentOf(m)}
	if in.Text == "" {
		in.Text = strings.TrimSpace(m.Caption)
	}
	r, err := b.Forms.Advance(ctx, user, in)
	if errors.Is(err, form.ErrNoSession) {
		b.showMenu(chatID, user, "Выберите действие в меню.")
		return
	}
	if err != nil {
		b.fail(chatID, err)
		return
	}
	b.sendReply(chatID, user, r)
}

// do runs a menu action the user is already allowed to perform.
func (b *Bot) do(ctx context.Context, chatID int64, user *model.User, action access.Action) {
	var (
		v   view
		err error
	)
	switch action {
	case access.AddUser:
		b.startFlow(ctx, chatID, user, flows.AddUser, nil)
		return
	case access.AddArtist:
		b.startFlow(ctx, chatID, user, flows.AddArtist, nil)
		return
	case access.CreateRelease:
		b.startFlow(ctx, chatID, user, flows.CreateRelease, nil)
		return
	case access.CreateTask:
		b.startFlow(ctx, chatID, user, flows.CreateTask, nil)
		return
	case access.SubmitReport:
		b.startFlow(ctx, chatID, user, flows.SubmitReport, nil)
		return
	case access.MyTasks:
		tasks, err := b.Svc.Store.ListOpenTasks(ctx, user.ID)
		b.sendTasks(chatID, tasks, err, "Нет активных задач. 🎉")
		return
	case access.OverdueTasks:
		tasks, err := b.Svc.Store.ListTasksByStatus(ctx, user.ID, model.StatusOverdue)
		b.sendTasks(chatID, tasks, err, "Просроченных задач нет.")
		return
	case access.Users:
		v, err = b.usersView(ctx, user)
	case access.Artists:
		v, err = b.artistsView(ctx)
	case access.Onboarding:
		v, err = b.onboardingView(ctx, user)
	case access.ReleasesAll, access.ReleasesOwn:
		v, err = b.releasesView(ctx, user, 0)
	case access.AllTasks:
		v, err = b.allTasksView(ctx)
	case access.History:
		v, err = b.historyView(ctx, user, false)
	case access.HistoryAll:
		v, err = b.historyView(ctx, user, true)
	case access.MyReports:
		v, err = b.reportsView(ctx, user, false)
	case access.ReportsAll:
		v, err = b.reportsView(ctx, user, true)
	case access.Stats:
		v, err = b.statsView(ctx)
	case access.PitchingCheck:
		var n int
		n, err = b.Jobs.PitchingAlert(ctx)
		v.Text = "🔥 Проверка питчинга: проблем нет."
		if n > 0 {
			v.Text = fmt.Sprintf("🔥 Проверка питчинга: горит релизов: %d.", n)
		}
	case access.SOS:
		n := b.Svc.SOS(ctx, user)
		v.Text = fmt.Sprintf("🆘 Сигнал отправлен основателям (%d).", n)
	default:
		v.Text = "Действие недоступно из меню."
	}
	if err != nil {
		b.fail(chatID, err)
		return
	}
	b.send(chatID, v.Text, v.KB)
}

func (b *Bot) sendTasks(chatID int64, tasks []*model.Task, err error, empty string) {
	if err != nil {
		b.fail(chatID, err)
		return
	}
	if len(tasks) == 0 {
		b.reply(chatID, empty)
		return
	}
	for _, t := range tasks {
		b.send(chatID, service.TaskCard(t), service.TaskActions(t))
	}
}

func (b *Bot) startFlow(ctx context.Context, chatID int64, user *model.User, name string, seed map[string]string) {
	r, err := b.Forms.Start(ctx, user, name, seed)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	b.sendReply(chatID, user, r)
}

func (b *Bot) sendReply(chatID int64, user *model.User, r form.Reply) {
	if r.Done {
		b.showMenu(chatID, user, r.Text)
		return
	}
	var kb notify.Keyboard
	for _, o := range r.Options {
		kb = append(kb, []notify.Button{{Text: o.Label, Data: callback.FormValue(o.Value)}})
	}
	kb = append(kb, []notify.Button{{Text: cancelLabel, Data: string(callback.Cancel)}})
	b.send(chatID, r.Text, kb)
}

func (b *Bot) cancel(ctx context.Context, chatID int64, user *model.User) {
	had, err := b.Forms.Cancel(ctx, user.ID)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	text := "Нечего отменять."
	if had {
		text = "❌ Отменено."
	}
	b.showMenu(chatID, user, text)
}

// callbackActions gates buttons that act on records.
var callbackActions = map[callback.Kind]access.Action{
	callback.Take:                 access.TakeTask,
	callback.Finish:               access.FinishTask,
	callback.Reject:               access.RejectTask,
	callback.ConfirmReject:        access.RejectTask,
	callback.AdminDelete:          access.DeleteTask,
	callback.ConfirmDelete:        access.DeleteTask,
	callback.DeleteRelease:        access.DeleteRelease,
	callback.ConfirmDeleteRelease: access.DeleteRelease,
	callback.RemoveUser:           access.DeleteUser,
	callback.ArtistCard:           access.Artists,
	callback.Onboard:              access.Onboarding,
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil {
		return
	}
	user, err := b.Svc.EnsureUser(ctx, cq.From.ID, cq.From.UserName, fullName(cq.From))
	if err != nil {
		b.answer(cq, "⛔️ Доступ запрещён")
		return
	}
	d, err := callback.Parse(cq.Data)
	if err != nil {
		log.Printf("WARN callback from %d: %v", user.ID, err)
		b.answer(cq, "Кнопка устарела")
		return
	}
	if need, ok := callbackActions[d.Kind]; ok && !access.Allowed(user.Role, need) {
		b.answer(cq, "⛔️ Нет доступа")
		return
	}
	if d.Kind == callback.ReleasePage && !access.Allowed(user.Role, access.ReleasesAll) && !access.Allowed(user.Role, access.ReleasesOwn) {
		b.answer(cq, "⛔️ Нет доступа")
		return
	}

	chatID, msgID := cq.From.ID, 0
	if cq.Message != nil {
		chatID, msgID = cq.Message.Chat.ID, cq.Message.MessageID
	}

	switch d.Kind {
	case callback.Form:
		r, err := b.Forms.Advance(ctx, user, form.Input{Choice: d.Value})
		if err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "")
		b.dropKeyboard(chatID, msgID)
		b.sendReply(chatID, user, r)

	case callback.Cancel:
		b.answer(cq, "")
		b.dropKeyboard(chatID, msgID)
		b.cancel(ctx, chatID, user)

	case callback.Ignore:
		b.answer(cq, "")
		if msgID != 0 {
			b.request(tgbotapi.NewDeleteMessage(chatID, msgID))
		}

	case callback.Take:
		t, err := b.Svc.TakeTask(ctx, user, d.ID)
		if err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "Статус: в работе")
		b.edit(chatID, msgID, service.TaskCard(t), service.TaskActions(t))

	case callback.Finish:
		r, err := b.Forms.Start(ctx, user, flows.FinishTask, map[string]string{"task_id": strconv.FormatInt(d.ID, 10)})
		if err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "")
		b.sendReply(chatID, user, r)

	case callback.Reject:
		t, err := b.Svc.CheckFinishable(ctx, user, d.ID)
		if err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "")
		b.send(chatID, fmt.Sprintf("Отказаться от задачи #%d «%s»? Основатели получат уведомление.", t.ID, t.Title), confirm("🚫 Да, отказаться", callback.ID(callback.ConfirmReject, t.ID)))

	case callback.ConfirmReject:
		t, err := b.Svc.RejectTask(ctx, user, d.ID)
		if err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "Отказ принят")
		b.edit(chatID, msgID, fmt.Sprintf("🚫 Вы отказались от задачи #%d «%s».", t.ID, t.Title), nil)

	case callback.AdminDelete:
		b.answer(cq, "")
		b.send(chatID, fmt.Sprintf("Удалить задачу #%d?", d.ID), confirm("🗑 Удалить", callback.ID(callback.ConfirmDelete, d.ID)))

	case callback.ConfirmDelete:
		if err := b.Svc.DeleteTask(ctx, user, d.ID); err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "Удалено")
		b.edit(chatID, msgID, fmt.Sprintf("🗑 Задача #%d удалена.", d.ID), nil)

	case callback.ReleasePage:
		v, err := b.releasesView(ctx, user, int(d.ID))
		if err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "")
		b.edit(chatID, msgID, v.Text, v.KB)

	case callback.DeleteRelease:
		b.answer(cq, "")
		b.send(chatID, fmt.Sprintf("Удалить релиз #%d вместе со всеми задачами?", d.ID), confirm("🗑 Удалить релиз", callback.ID(callback.ConfirmDeleteRelease, d.ID)))

	case callback.ConfirmDeleteRelease:
		if err := b.Svc.DeleteRelease(ctx, user, d.ID); err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "Удалено")
		b.edit(chatID, msgID, fmt.Sprintf("🗑 Релиз #%d и его задачи удалены.", d.ID), nil)

	case callback.RemoveUser:
		if err := b.Svc.DeleteUser(ctx, user, d.ID); err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "Сотрудник удалён")
		if v, err := b.usersView(ctx, user); err == nil {
			b.edit(chatID, msgID, v.Text, v.KB)
		}

	case callback.ArtistCard:
		v, err := b.artistCard(ctx, user, d.ID)
		if err != nil {
			b.answer(cq, errText(err))
			return
		}
		b.answer(cq, "")
		b.send(chatID, v.Text, v.KB)

	case callback.Onboard:
		if _, err := b.Svc.ConfirmOnboarding(ctx, user, d.ID, d.Check, d.Yes); err != nil {
			b.answer(cq, errText(err))
			return
		}
		if !d.Yes {
			b.answer(cq, "")
			b.edit(chatID, msgID, "⏳ Хорошо, напомню позже.", nil)
			return
		}
		b.answer(cq, "✅ "+d.Check.Label())
		if v, err := b.artistCard(ctx, user, d.ID); err == nil {
			b.edit(chatID, msgID, v.Text, v.KB)
		}
	}
}

func confirm(label, data string) notify.Keyboard {
	return notify.Keyboard{{
		{Text: label, Data: data},
		{Text: "↩️ Назад", Data: string(callback.Ignore)},
	}}
}

func errText(err error) string {
	switch {
	case errors.Is(err, model.ErrForbidden):
		return "⛔️ Нет доступа."
	case errors.Is(err, model.ErrAlreadyHandled):
		return "Уже обработано."
	case errors.Is(err, model.ErrNotFound):
		return "Не найдено."
	case errors.Is(err, model.ErrFileRequired):
		return "📎 Для этой задачи нужен файл."
	case errors.Is(err, model.ErrInvalid):
		return "Некорректные данные."
	case errors.Is(err, form.ErrNoSession):
		return "Форма устарела, начните заново."
	}
	log.Printf("ERROR %v", err)
	return "⚠️ Что-то пошло не так, попробуйте позже."
}

func (b *Bot) denied(chatID, userID int64, err error) {
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrForbidden) {
		b.reply(chatID, fmt.Sprintf("⛔️ Доступ запрещён.\nВаш ID: %d. Передайте его основателю лейбла.", userID))
		return
	}
	b.fail(chatID, err)
}

func (b *Bot) fail(chatID int64, err error) { b.reply(chatID, errText(err)) }

func (b *Bot) showMenu(chatID int64, user *model.User, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = menuKeyboard(user.Role)
	if _, err := b.API.Send(msg); err != nil {
		log.Printf("WARN send menu to %d: %v", chatID, err)
	}
}

func (b *Bot) reply(chatID int64, text string) { b.send(chatID, text, nil) }

func (b *Bot) send(chatID int64, text string, kb notify.Keyboard) {
	if err := (Messenger{API: b.API}).Send(context.Background(), chatID, text, kb); err != nil {
		log.Printf("WARN send to %d: %v", chatID, err)
	}
}

func (b *Bot) edit(chatID int64, msgID int, text string, kb notify.Keyboard) {
	if msgID == 0 {
		b.send(chatID, text, kb)
		return
	}
	e := tgbotapi.NewEditMessageText(chatID, msgID, text)
	if len(kb) > 0 {
		markup := inline(kb)
		e.ReplyMarkup = &markup
	}
	if _, err := b.API.Send(e); err != nil {
		log.Printf("WARN edit %d/%d: %v", chatID, msgID, err)
	}
}

func (b *Bot) dropKeyboard(chatID int64, msgID int) {
	if msgID == 0 {
		return
	}
	b.request(tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}))
}

func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	b.request(tgbotapi.NewCallback(cq.ID, text))
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.API.Request(c); err != nil {
		log.Printf("WARN telegram request: %v", err)
	}
}
