package service

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
	"github.com/hihikaAAa/label-bot/internal/upload"
)

type TaskInput struct {
	Title        string
	Description  string
	AssigneeID   int64
	Deadline     time.Time
	FileRequired bool
}

// TaskActions is the inline keyboard shown to an assignee for an open task.
func TaskActions(t *model.Task) notify.Keyboard {
	if !t.Status.Open() {
		return nil
	}
	row := []notify.Button{}
	if t.Status == model.StatusPending {
		row = append(row, notify.Button{Text: "▶️ В работу", Data: callback.ID(callback.Take, t.ID)})
	}
	row = append(row,
		notify.Button{Text: "✅ Выполнить", Data: callback.ID(callback.Finish, t.ID)},
		notify.Button{Text: "❌ Отказаться", Data: callback.ID(callback.Reject, t.ID)},
	)
	return notify.Keyboard{row}
}

func (s *Service) CreateTask(ctx context.Context, actor *model.User, in TaskInput) (*model.Task, error) {
	if in.Deadline.Before(s.Today()) {
		return nil, fmt.Errorf("%w: deadline in the past", model.ErrInvalid)
	}
	if _, err := s.Store.GetUser(ctx, in.AssigneeID); err != nil {
		return nil, fmt.Errorf("assignee: %w", err)
	}
	t := &model.Task{
		Title:        in.Title,
		Description:  in.Description,
		AssigneeID:   in.AssigneeID,
		CreatorID:    actor.ID,
		Deadline:     in.Deadline,
		Status:       model.StatusPending,
		FileRequired: in.FileRequired,
	}
	if err := s.Store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	log.Printf("INFO task %d created by %d for %d", t.ID, actor.ID, t.AssigneeID)
	if t.AssigneeID != actor.ID {
		s.Notify.Notify(ctx, t.AssigneeID, "🆕 Новая задача от "+actor.Display()+"\n\n"+TaskCard(t), TaskActions(t))
	}
	return t, nil
}

// TaskCard renders a task for chat.
func TaskCard(t *model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s #%d %s\n", t.Status.Icon(), t.ID, t.Title)
	if t.Description != "" {
		b.WriteString(t.Description + "\n")
	}
	fmt.Fprintf(&b, "⏳ Дедлайн: %s", model.FormatDate(t.Deadline))
	if t.FileRequired {
		b.WriteString("\n📎 Нужен файл")
	}
	return b.String()
}

// ownTask loads a task the actor is assigned to and that is still open.
func (s *Service) ownTask(ctx context.Context, actor *model.User, id int64) (*model.Task, error) {
	t, err := s.Store.GetTask(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrAlreadyHandled
	}
	if err != nil {
		return nil, err
	}
	if t.AssigneeID != actor.ID {
		return nil, model.ErrForbidden
	}
	if !t.Status.Open() {
		return nil, model.ErrAlreadyHandled
	}
	return t, nil
}

// CheckFinishable is the precondition of the finish-task form.
func (s *Service) CheckFinishable(ctx context.Context, actor *model.User, id int64) (*model.Task, error) {
	return s.ownTask(ctx, actor, id)
}

func (s *Service) TakeTask(ctx context.Context, actor *model.User, id int64) (*model.Task, error) {
	t, err := s.ownTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.Store.TransitionTask(ctx, id, []model.TaskStatus{model.StatusPending}, model.StatusInProgress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrAlreadyHandled
	}
	t.Status = model.StatusInProgress
	if t.CreatorID != actor.ID {
		s.Notify.Notify(ctx, t.CreatorID, fmt.Sprintf("⏳ %s взял(а) в работу задачу #%d %s", actor.Display(), t.ID, t.Title), nil)
	}
	return t, nil
}

// CompleteTask closes a task. A file-required task keeps only the file URL,
// any other task keeps only the comment.
func (s *Service) CompleteTask(ctx context.Context, actor *model.User, id int64, fileURL, comment string) (*model.Task, error) {
	t, err := s.ownTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if t.FileRequired {
		if fileURL == "" {
			return nil, model.ErrFileRequired
		}
		comment = ""
	} else {
		fileURL = ""
		if comment = strings.TrimSpace(comment); comment == "" {
			comment = "Выполнено"
		}
	}
	ok, err := s.Store.CompleteTask(ctx, id, fileURL, comment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrAlreadyHandled
	}
	t.Status, t.FileURL, t.Comment = model.StatusDone, fileURL, comment
	log.Printf("INFO task %d done by %d", t.ID, actor.ID)

	text := fmt.Sprintf("✅ %s выполнил(а) задачу #%d %s", actor.Display(), t.ID, t.Title)
	if t.FileURL != "" {
		text += "\n📎 " + t.FileURL
	} else {
		text += "\n💬 " + t.Comment
	}
	notified := map[int64]bool{actor.ID: true}
	s.deliverResult(ctx, t.CreatorID, t, text, notified)

	if t.ParentID != 0 {
		parent, err := s.Store.GetTask(ctx, t.ParentID)
		if err == nil {
			s.deliverResult(ctx, parent.AssigneeID, t, fmt.Sprintf("🔗 Подзадача к #%d %s готова.\n%s", parent.ID, parent.Title, text), notified)
		} else if !errors.Is(err, model.ErrNotFound) {
			log.Printf("ERROR parent of task %d: %v", t.ID, err)
		}
	}
	return t, nil
}

func (s *Service) deliverResult(ctx context.Context, to int64, t *model.Task, text string, notified map[int64]bool) {
	if notified[to] {
		return
	}
	notified[to] = true
	s.Notify.Notify(ctx, to, text, nil)
	if att, ok := model.ParseRef(t.FileURL); ok {
		s.Notify.NotifyFile(ctx, to, att, t.Title)
	}
}

// RejectTask lets the assignee decline a task; every founder is alerted.
func (s *Service) RejectTask(ctx context.Context, actor *model.User, id int64) (*model.Task, error) {
	t, err := s.ownTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.Store.TransitionTask(ctx, id, model.OpenStatuses, model.StatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrAlreadyHandled
	}
	t.Status = model.StatusRejected
	log.Printf("INFO task %d rejected by %d", t.ID, actor.ID)

	ids, _ := s.founderIDs(ctx)
	if t.CreatorID != actor.ID {
		ids = append(ids, t.CreatorID)
	}
	kb := notify.Keyboard{{{Text: "🗑 Удалить задачу", Data: callback.ID(callback.AdminDelete, t.ID)}}}
	s.Notify.NotifyMany(ctx, ids, fmt.Sprintf("🚫 %s отказался(ась) от задачи #%d %s", actor.Display(), t.ID, t.Title), kb)
	return t, nil
}

// DeleteTask removes a task in any state.
func (s *Service) DeleteTask(ctx context.Context, actor *model.User, id int64) error {
	t, err := s.Store.GetTask(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrAlreadyHandled
	}
	if err != nil {
		return err
	}
	ok, err := s.Store.DeleteTask(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrAlreadyHandled
	}
	log.Printf("INFO task %d deleted by %d", id, actor.ID)
	if t.AssigneeID != actor.ID && t.Status.Open() {
		s.Notify.Notify(ctx, t.AssigneeID, fmt.Sprintf("🗑 Задача #%d %s удалена.", t.ID, t.Title), nil)
	}
	return nil
}

// SubmitReport appends a daily report and closes the author's SMM task for today.
func (s *Service) SubmitReport(ctx context.Context, actor *model.User, text string) (*model.Report, error) {
	r := &model.Report{AuthorID: actor.ID, Date: s.Today(), Text: text}
	if err := s.Store.CreateReport(ctx, r); err != nil {
		return nil, err
	}
	open, err := s.Store.ListOpenTasks(ctx, actor.ID)
	if err != nil {
		log.Printf("ERROR open tasks of %d: %v", actor.ID, err)
	}
	for _, t := range open {
		if t.Category == model.CategorySMMDaily && !t.Deadline.After(r.Date) {
			if _, err := s.Store.CompleteTask(ctx, t.ID, "", fmt.Sprintf("Отчёт #%d", r.ID)); err != nil {
				log.Printf("ERROR close smm task %d: %v", t.ID, err)
			}
		}
	}
	ids, _ := s.founderIDs(ctx)
	s.Notify.NotifyMany(ctx, ids, fmt.Sprintf("📊 Отчёт от %s за %s:\n\n%s", actor.Display(), model.FormatDate(r.Date), text), nil)
	return r, nil
}

// StoreAttachment publishes a chat file and returns its URL. When hosting
// fails the transport reference is returned so the submission is not lost.
func (s *Service) StoreAttachment(ctx context.Context, att model.Attachment) string {
	if s.Files == nil || s.Uploader == nil || s.Uploader == upload.Disabled {
		return att.Ref()
	}
	rc, name, err := s.Files.Open(ctx, att.ID)
	if err != nil {
		log.Printf("WARN download %s: %v", att.ID, err)
		return att.Ref()
	}
	defer rc.Close()
	if att.Name != "" {
		name = att.Name
	}
	url, err := s.Uploader.Upload(ctx, rc, name)
	if err != nil {
		log.Printf("WARN upload %s: %v", att.ID, err)
		return att.Ref()
	}
	return url
}
