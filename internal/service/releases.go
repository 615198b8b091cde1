package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hihikaAAa/label-bot/internal/checklist"
	"github.com/hihikaAAa/label-bot/internal/model"
)

type ReleaseInput struct {
	Artist     string
	Title      string
	Type       model.ReleaseType
	CoverReady bool
	Feat       string
	Date       time.Time
}

// CreateRelease stores the release, registering the artist on first mention,
// and spawns its checklist tasks. Nothing is kept unless every write succeeds,
// and assignees hear about their tasks only after the commit.
func (s *Service) CreateRelease(ctx context.Context, actor *model.User, in ReleaseInput) (*model.Release, []*model.Task, error) {
	today := s.Today()
	if in.Date.Before(today) {
		return nil, nil, fmt.Errorf("%w: release date in the past", model.ErrInvalid)
	}

	var (
		rel   *model.Release
		tasks []*model.Task
	)
	err := s.Store.WithTx(ctx, func(st model.Store) error {
		artist, err := st.FindArtistByName(ctx, in.Artist)
		if errors.Is(err, model.ErrNotFound) {
			artist = &model.Artist{Name: strings.TrimSpace(in.Artist), ManagerID: actor.ID, FirstReleaseDate: in.Date}
			err = st.CreateArtist(ctx, artist)
		}
		if err != nil {
			return fmt.Errorf("artist: %w", err)
		}

		rel = &model.Release{
			Title:      in.Title,
			ArtistID:   artist.ID,
			ArtistName: artist.Name,
			Type:       in.Type,
			Date:       in.Date,
			CreatedBy:  actor.ID,
			Feat:       in.Feat,
		}
		if err := st.CreateRelease(ctx, rel); err != nil {
			return fmt.Errorf("release: %w", err)
		}

		performer := artist.Name
		if in.Feat != "" {
			performer += " feat. " + in.Feat
		}
		specs := checklist.Generate(checklist.Release{
			Title:      in.Title,
			Artist:     performer,
			Type:       in.Type,
			CoverReady: in.CoverReady,
			Date:       in.Date,
		}, today)

		byCategory := map[model.TaskCategory]*model.Task{}
		tasks = make([]*model.Task, 0, len(specs))
		for _, sp := range specs {
			assignee, note, err := resolveAssignee(ctx, st, actor, sp)
			if err != nil {
				return err
			}
			t := &model.Task{
				Title:        sp.Title,
				Description:  sp.Description + note,
				AssigneeID:   assignee,
				CreatorID:    actor.ID,
				ReleaseID:    rel.ID,
				Category:     sp.Category,
				Deadline:     checklist.Deadline(in.Date, sp.Offset, today),
				Status:       model.StatusPending,
				FileRequired: sp.FileRequired,
			}
			if p, ok := byCategory[sp.Parent]; ok && sp.Parent != "" {
				t.ParentID = p.ID
			}
			if err := st.CreateTask(ctx, t); err != nil {
				return fmt.Errorf("task %s: %w", sp.Category, err)
			}
			byCategory[sp.Category] = t
			tasks = append(tasks, t)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("INFO release %d %q created by %d with %d tasks", rel.ID, rel.Title, actor.ID, len(tasks))

	s.announceTasks(ctx, actor, rel, tasks)
	return rel, tasks, nil
}

// resolveAssignee picks the earliest registered holder of the role, falling
// back to the creator with a note when nobody holds it.
func resolveAssignee(ctx context.Context, st model.Store, actor *model.User, sp checklist.Spec) (int64, string, error) {
	if sp.ToCreator {
		return actor.ID, "", nil
	}
	u, err := st.FirstUserWithRole(ctx, sp.Role)
	if err == nil {
		return u.ID, "", nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return 0, "", err
	}
	return actor.ID, fmt.Sprintf("\n⚠️ Fallback: нет пользователя с ролью %s, задача назначена создателю релиза.", sp.Role.Title()), nil
}

func (s *Service) announceTasks(ctx context.Context, actor *model.User, rel *model.Release, tasks []*model.Task) {
	per := map[int64][]*model.Task{}
	var order []int64
	for _, t := range tasks {
		if t.AssigneeID == actor.ID {
			continue
		}
		if _, ok := per[t.AssigneeID]; !ok {
			order = append(order, t.AssigneeID)
		}
		per[t.AssigneeID] = append(per[t.AssigneeID], t)
	}
	for _, id := range order {
		var b strings.Builder
		fmt.Fprintf(&b, "🆕 Новые задачи по релизу «%s» (%s):\n", rel.FullTitle(), model.FormatDate(rel.Date))
		for _, t := range per[id] {
			fmt.Fprintf(&b, "\n#%d %s\n⏳ до %s", t.ID, t.Title, model.FormatDate(t.Deadline))
			if t.FileRequired {
				b.WriteString(" 📎 нужен файл")
			}
		}
		b.WriteString("\n\nОткройте «📋 Мои задачи», чтобы начать.")
		s.Notify.Notify(ctx, id, b.String(), nil)
	}
}

func (s *Service) DeleteRelease(ctx context.Context, actor *model.User, id int64) error {
	ok, err := s.Store.DeleteRelease(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrAlreadyHandled
	}
	log.Printf("INFO release %d deleted by %d", id, actor.ID)
	return nil
}
