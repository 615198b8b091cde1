package lib

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hihikaAAa/label-bot/internal/access"
	"github.com/hihikaAAa/label-bot/internal/model"
)

const cancelLabel = "🔙 Отмена"

type item struct {
	Label  string
	Action access.Action
}

var (
	itemUsers       = item{"👥 Сотрудники", access.Users}
	itemAddUser     = item{"➕ Сотрудник", access.AddUser}
	itemArtists     = item{"🎤 Артисты", access.Artists}
	itemAddArtist   = item{"➕ Артист", access.AddArtist}
	itemOnboarding  = item{"🧩 Онбординг", access.Onboarding}
	itemNewRelease  = item{"🚀 Новый релиз", access.CreateRelease}
	itemNewTask     = item{"📝 Новая задача", access.CreateTask}
	itemAllTasks    = item{"📋 Все задачи", access.AllTasks}
	itemMyTasks     = item{"📌 Мои задачи", access.MyTasks}
	itemOverdue     = item{"⚠️ Просроченные", access.OverdueTasks}
	itemReport      = item{"📊 Сдать отчёт", access.SubmitReport}
	itemStats       = item{"📈 Статистика", access.Stats}
	itemPitching    = item{"🔥 Проверка питчинга", access.PitchingCheck}
	itemSOS         = item{"🆘 SOS", access.SOS}
	releasesLabel   = "💿 Релизы"
	historyLabel    = "📜 История"
	reportsLabel    = "🗂 Отчёты"
)

// menus is the reply keyboard of each role. A label may stand for a
// different action depending on who presses it.
var menus = map[model.Role][][]item{
	model.RoleFounder: {
		{itemUsers, itemAddUser},
		{itemArtists, itemAddArtist},
		{itemOnboarding, {releasesLabel, access.ReleasesAll}},
		{itemNewRelease, itemNewTask},
		{itemAllTasks, itemMyTasks},
		{{historyLabel, access.HistoryAll}, {reportsLabel, access.ReportsAll}},
		{itemStats, itemPitching},
	},
	model.RoleANR: {
		{itemArtists, itemAddArtist},
		{itemOnboarding, {releasesLabel, access.ReleasesOwn}},
		{itemNewRelease, itemNewTask},
		{itemMyTasks, {historyLabel, access.History}},
		{itemSOS},
	},
	model.RoleDesigner: {
		{itemMyTasks, itemOverdue},
		{{historyLabel, access.History}, itemSOS},
	},
	model.RoleSMM: {
		{itemReport, {reportsLabel, access.MyReports}},
		{itemMyTasks, {historyLabel, access.History}},
		{itemSOS},
	},
}

// actionFor resolves a pressed label within the role's own menu.
func actionFor(role model.Role, label string) (access.Action, bool) {
	for _, row := range menus[role] {
		for _, it := range row {
			if it.Label == label {
				return it.Action, true
			}
		}
	}
	return "", false
}

// anyLabel reports whether text is a menu label of some role.
func anyLabel(text string) bool {
	for _, rows := range menus {
		for _, row := range rows {
			for _, it := range row {
				if it.Label == text {
					return true
				}
			}
		}
	}
	return false
}

func menuKeyboard(role model.Role) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, row := range menus[role] {
		var r []tgbotapi.KeyboardButton
		for _, it := range row {
			r = append(r, tgbotapi.NewKeyboardButton(it.Label))
		}
		rows = append(rows, r)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
