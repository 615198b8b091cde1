// Package checklist turns a release into the ordered set of tasks needed to ship it.
package checklist

import (
	"fmt"
	"time"

	"github.com/hihikaAAa/label-bot/internal/model"
)

// PitchingLeadDays is how far ahead of a release the pitching form must be filed.
const PitchingLeadDays = 14

type Release struct {
	Title      string
	Artist     string
	Type       model.ReleaseType
	CoverReady bool
	Date       time.Time
}

// Spec describes one task to create. Exactly one of Role and ToCreator is set.
type Spec struct {
	Category     model.TaskCategory
	Title        string
	Description  string
	Role         model.Role
	ToCreator    bool
	Offset       int
	FileRequired bool
	// Parent names the category of an earlier spec in the same list.
	Parent model.TaskCategory
}

type template struct {
	category model.TaskCategory
	icon     string
	name     string
	desc     string
	role     model.Role
	offset   int
	file     bool
	parent   model.TaskCategory
}

var baseline = []template{
	{model.CategoryDistribution, "📤", "Дистрибуция", "Проверить обложку и загрузить релиз на дистрибуцию", model.RoleANR, -14, false, ""},
	{model.CategoryLyrics, "📝", "Тексты", "Запросить у артиста тексты песен", model.RoleANR, -15, false, ""},
	{model.CategoryCopyright, "⚖️", "Авторские права", "Проверить права на музыку и семплы", model.RoleFounder, -5, false, ""},
	{model.CategorySnippet, "📱", "Сниппет", "Сделать промо-сниппет", model.RoleDesigner, -3, true, ""},
}

var cover = template{model.CategoryCover, "🎨", "Обложка", "Сделать обложку", model.RoleDesigner, -14, true, model.CategoryDistribution}

var album = []template{
	{model.CategoryTracklist, "📋", "Треклист", "Утвердить финальный треклист", model.RoleANR, -30, false, ""},
	{model.CategoryMetadata, "📀", "Метаданные", "Проверить метаданные всех треков", model.RoleANR, -20, false, ""},
	{model.CategoryPromoPlan, "📢", "Промо-план", "Составить план продвижения альбома", model.RoleANR, -15, false, ""},
}

var pitching = template{model.CategoryPitching, "🎯", "Питчинг", "Заполнить форму питчинга", "", -PitchingLeadDays, false, ""}

// Generate lists the tasks for r. Parents always precede their children.
func Generate(r Release, today time.Time) []Spec {
	tpls := append([]template(nil), baseline...)
	if !r.CoverReady {
		tpls = append(tpls, cover)
	}
	if r.Type == model.ReleaseAlbum {
		tpls = append(tpls, album...)
	}
	if model.DaysBetween(today, r.Date) > PitchingLeadDays {
		tpls = append(tpls, pitching)
	}

	out := make([]Spec, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, Spec{
			Category:     t.category,
			Title:        fmt.Sprintf("%s %s | %s", t.icon, t.name, r.Artist),
			Description:  fmt.Sprintf("%s: %s - %s", t.desc, r.Artist, r.Title),
			Role:         t.role,
			ToCreator:    t.role == "",
			Offset:       t.offset,
			FileRequired: t.file,
			Parent:       t.parent,
		})
	}
	return out
}

// Deadline is release date plus offset, never earlier than today.
func Deadline(release time.Time, offset int, today time.Time) time.Time {
	d := model.DateOf(release).AddDate(0, 0, offset)
	if t := model.DateOf(today); d.Before(t) {
		return t
	}
	return d
}
