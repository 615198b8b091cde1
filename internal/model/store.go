package model

import (
	"context"
	"time"
)

type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	UpsertUser(ctx context.Context, u *User) error
	UpdateUsername(ctx context.Context, id int64, username string) error
	DeleteUser(ctx context.Context, id int64) (bool, error)
	ListUsers(ctx context.Context) ([]*User, error)
	ListUsersByRole(ctx context.Context, role Role) ([]*User, error)
	FirstUserWithRole(ctx context.Context, role Role) (*User, error)
}

type ArtistRepository interface {
	CreateArtist(ctx context.Context, a *Artist) error
	GetArtist(ctx context.Context, id int64) (*Artist, error)
	FindArtistByName(ctx context.Context, name string) (*Artist, error)
	ListArtists(ctx context.Context) ([]*Artist, error)
	ListArtistsPendingOnboarding(ctx context.Context) ([]*Artist, error)
	SetOnboardingFlag(ctx context.Context, artistID int64, check OnboardingCheck) (bool, error)
}

type ReleaseRepository interface {
	CreateRelease(ctx context.Context, r *Release) error
	GetRelease(ctx context.Context, id int64) (*Release, error)
	// ListReleases pages through releases newest first; createdBy 0 lists everyone's.
	ListReleases(ctx context.Context, createdBy int64, offset, limit int) ([]*Release, int, error)
	ListReleasesOn(ctx context.Context, day time.Time) ([]*Release, error)
	DeleteRelease(ctx context.Context, id int64) (bool, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id int64) (*Task, error)
	// ListOpenTasks returns not yet finished tasks; assignee 0 returns all of them.
	ListOpenTasks(ctx context.Context, assignee int64) ([]*Task, error)
	ListTasksByStatus(ctx context.Context, assignee int64, status TaskStatus) ([]*Task, error)
	// ListHistory returns the latest terminal tasks; assignee 0 returns all of them.
	ListHistory(ctx context.Context, assignee int64, limit int) ([]*Task, error)
	ListOverdueCandidates(ctx context.Context, today time.Time) ([]*Task, error)
	ListTasksDueOn(ctx context.Context, day time.Time) ([]*Task, error)
	FindReleaseTask(ctx context.Context, releaseID int64, category TaskCategory) (*Task, error)
	HasTask(ctx context.Context, assignee int64, category TaskCategory, deadline time.Time) (bool, error)
	// TransitionTask moves the task to `to` only if its status is one of from.
	TransitionTask(ctx context.Context, id int64, from []TaskStatus, to TaskStatus) (bool, error)
	// CompleteTask marks an open task done; it refuses a file-required task without fileURL.
	CompleteTask(ctx context.Context, id int64, fileURL, comment string) (bool, error)
	DeleteTask(ctx context.Context, id int64) (bool, error)
}

type ReportRepository interface {
	CreateReport(ctx context.Context, r *Report) error
	// ListReports pages reports by date descending; author 0 lists everyone's.
	ListReports(ctx context.Context, author int64, offset, limit int) ([]*Report, error)
}

type Store interface {
	UserRepository
	ArtistRepository
	ReleaseRepository
	TaskRepository
	ReportRepository
	Stats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
	// WithTx runs fn in one transaction, rolled back when fn fails.
	WithTx(ctx context.Context, fn func(Store) error) error
}
