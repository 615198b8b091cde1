package model

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusOverdue    TaskStatus = "overdue"
	StatusRejected   TaskStatus = "rejected"
)

// OpenStatuses are the states from which a task can still be completed or rejected.
var OpenStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusOverdue}

func (s TaskStatus) Open() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusOverdue
}

func (s TaskStatus) Icon() string {
	switch s {
	case StatusPending:
		return "🆕"
	case StatusInProgress:
		return "⏳"
	case StatusDone:
		return "✅"
	case StatusOverdue:
		return "🔥"
	case StatusRejected:
		return "❌"
	}
	return "•"
}

// TaskCategory tags generated tasks so jobs can find them without matching titles.
type TaskCategory string

const (
	CategoryManual       TaskCategory = ""
	CategoryDistribution TaskCategory = "distribution"
	CategoryLyrics       TaskCategory = "lyrics"
	CategoryCopyright    TaskCategory = "copyright"
	CategorySnippet      TaskCategory = "snippet"
	CategoryCover        TaskCategory = "cover"
	CategoryTracklist    TaskCategory = "tracklist"
	CategoryMetadata     TaskCategory = "metadata"
	CategoryPromoPlan    TaskCategory = "promo_plan"
	CategoryPitching     TaskCategory = "pitching"
	CategorySMMDaily     TaskCategory = "smm_daily"
)

type Task struct {
	ID           int64
	Title        string
	Description  string
	AssigneeID   int64
	CreatorID    int64
	ReleaseID    int64
	ParentID     int64
	Category     TaskCategory
	Deadline     time.Time
	Status       TaskStatus
	FileRequired bool
	FileURL      string
	Comment      string
	CreatedAt    time.Time
}

type Report struct {
	ID        int64
	AuthorID  int64
	Date      time.Time
	Text      string
	CreatedAt time.Time
}

// Attachment is a file the messenger already holds, addressed by its own id.
type Attachment struct {
	ID   string
	Name string
	Kind string
}

// Ref is the transport-native reference stored when external hosting fails.
func (a Attachment) Ref() string {
	return "tg:" + a.Kind + ":" + a.ID
}

type Stats struct {
	Users    int
	Artists  int
	Releases int
	Tasks    map[TaskStatus]int
	Reports  int
}

// ParseRef reverses Attachment.Ref.
func ParseRef(s string) (Attachment, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] != "tg" || parts[2] == "" {
		return Attachment{}, false
	}
	return Attachment{Kind: parts[1], ID: parts[2]}, true
}
