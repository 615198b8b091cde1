// Package service implements the label's operations on top of the record store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
	"github.com/hihikaAAa/label-bot/internal/upload"
)

type Service struct {
	Store    model.Store
	Notify   *notify.Dispatcher
	Uploader upload.Uploader
	Files    upload.FileSource
	Loc      *time.Location
	Now      func() time.Time
	AdminIDs []int64
}

func New(store model.Store, n *notify.Dispatcher, adminIDs []int64, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		Store:    store,
		Notify:   n,
		Uploader: upload.Disabled,
		Loc:      loc,
		Now:      time.Now,
		AdminIDs: adminIDs,
	}
}

// Today is the current calendar date in the label's time zone.
func (s *Service) Today() time.Time {
	return model.DateOf(s.Now().In(s.Loc))
}

func (s *Service) isAdmin(id int64) bool {
	for _, a := range s.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

// SeedAdmins registers configured admin ids as founders unless they already exist.
func (s *Service) SeedAdmins(ctx context.Context) error {
	for _, id := range s.AdminIDs {
		_, err := s.Store.GetUser(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}
		if err := s.Store.UpsertUser(ctx, &model.User{ID: id, Role: model.RoleFounder, Active: true}); err != nil {
			return fmt.Errorf("seed admin %d: %w", id, err)
		}
		log.Printf("INFO seeded admin %d as founder", id)
	}
	return nil
}

// EnsureUser resolves the sender of an update. Unknown admin ids are
// registered on first contact; other unknown ids get ErrNotFound.
func (s *Service) EnsureUser(ctx context.Context, id int64, username, name string) (*model.User, error) {
	u, err := s.Store.GetUser(ctx, id)
	switch {
	case err == nil:
		if !u.Active {
			return nil, model.ErrForbidden
		}
		if username != "" && u.Username != username {
			if err := s.Store.UpdateUsername(ctx, id, username); err != nil {
				log.Printf("WARN update username %d: %v", id, err)
			}
			u.Username = username
		}
		if u.Name == "" && name != "" {
			u.Name = name
			if err := s.Store.UpsertUser(ctx, u); err != nil {
				log.Printf("WARN update name %d: %v", id, err)
			}
		}
		return u, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	case !s.isAdmin(id):
		return nil, model.ErrNotFound
	}
	u = &model.User{ID: id, Username: username, Name: name, Role: model.RoleFounder, Active: true}
	if err := s.Store.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("INFO admin %d registered on first contact", id)
	return u, nil
}

func (s *Service) AddUser(ctx context.Context, actor *model.User, id int64, name string, role model.Role) (*model.User, error) {
	if id <= 0 || !role.Valid() {
		return nil, model.ErrInvalid
	}
	u := &model.User{ID: id, Name: name, Role: role, Active: true}
	if old, err := s.Store.GetUser(ctx, id); err == nil {
		u.Username, u.CreatedAt = old.Username, old.CreatedAt
	}
	if err := s.Store.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("INFO user %d added as %s by %d", id, role, actor.ID)
	s.Notify.Notify(ctx, id, fmt.Sprintf("👋 Вас добавили в команду лейбла.\nРоль: %s\nНажмите /start, чтобы открыть меню.", role.Title()), nil)
	return u, nil
}

// DeleteUser removes a staff member. Founders cannot be removed from the bot.
func (s *Service) DeleteUser(ctx context.Context, actor *model.User, id int64) error {
	if id == actor.ID {
		return model.ErrForbidden
	}
	u, err := s.Store.GetUser(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrAlreadyHandled
	}
	if err != nil {
		return err
	}
	if u.Role == model.RoleFounder {
		return model.ErrForbidden
	}
	ok, err := s.Store.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrAlreadyHandled
	}
	log.Printf("INFO user %d deleted by %d", id, actor.ID)
	return nil
}

func (s *Service) AddArtist(ctx context.Context, actor *model.User, name string, managerID int64, firstRelease time.Time) (*model.Artist, error) {
	if _, err := s.Store.FindArtistByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: artist %q exists", model.ErrInvalid, name)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if managerID == 0 {
		managerID = actor.ID
	}
	a := &model.Artist{Name: name, ManagerID: managerID, FirstReleaseDate: firstRelease}
	if err := s.Store.CreateArtist(ctx, a); err != nil {
		return nil, err
	}
	if managerID != actor.ID {
		s.Notify.Notify(ctx, managerID, fmt.Sprintf("🎤 Вы назначены менеджером артиста «%s».", name), nil)
	}
	return a, nil
}

// ConfirmOnboarding records a manager's answer to an onboarding question.
// "No" changes nothing; the question comes back on the next run.
func (s *Service) ConfirmOnboarding(ctx context.Context, actor *model.User, artistID int64, check model.OnboardingCheck, yes bool) (bool, error) {
	a, err := s.Store.GetArtist(ctx, artistID)
	if err != nil {
		return false, err
	}
	if a.ManagerID != actor.ID && actor.Role != model.RoleFounder {
		return false, model.ErrForbidden
	}
	if !yes {
		return false, nil
	}
	return s.Store.SetOnboardingFlag(ctx, artistID, check)
}

func (s *Service) SOS(ctx context.Context, actor *model.User) int {
	ids, _ := s.founderIDs(ctx)
	return s.Notify.NotifyMany(ctx, ids, fmt.Sprintf("🆘 SOS от %s (%s)! Нужна срочная помощь.", actor.Display(), actor.Role.Title()), nil)
}

func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	return s.Store.Stats(ctx)
}

func (s *Service) founderIDs(ctx context.Context) ([]int64, error) {
	founders, err := s.Store.ListUsersByRole(ctx, model.RoleFounder)
	if err != nil {
		log.Printf("ERROR list founders: %v", err)
		return nil, err
	}
	ids := make([]int64, 0, len(founders))
	for _, f := range founders {
		ids = append(ids, f.ID)
	}
	return ids, nil
}
