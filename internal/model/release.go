package model

import (
	"strings"
	"time"
)

type ReleaseType string

const (
	ReleaseSingle8020 ReleaseType = "single_80_20"
	ReleaseSingle5050 ReleaseType = "single_50_50"
	ReleaseAlbum      ReleaseType = "album"
)

var ReleaseTypes = []ReleaseType{ReleaseSingle8020, ReleaseSingle5050, ReleaseAlbum}

var releaseTypeTitles = map[ReleaseType]string{
	ReleaseSingle8020: "Сингл 80/20",
	ReleaseSingle5050: "Сингл 50/50",
	ReleaseAlbum:      "Альбом",
}

func (t ReleaseType) Title() string {
	if s, ok := releaseTypeTitles[t]; ok {
		return s
	}
	return string(t)
}

func ParseReleaseType(s string) (ReleaseType, bool) {
	s = strings.TrimSpace(s)
	for t, title := range releaseTypeTitles {
		if s == string(t) || strings.EqualFold(s, title) {
			return t, true
		}
	}
	return "", false
}

type Release struct {
	ID         int64
	Title      string
	ArtistID   int64
	ArtistName string
	Type       ReleaseType
	Date       time.Time
	CreatedBy  int64
	Feat       string
	CreatedAt  time.Time
}

func (r Release) FullTitle() string {
	s := r.ArtistName
	if r.Feat != "" {
		s += " feat. " + r.Feat
	}
	return s + " - " + r.Title
}
