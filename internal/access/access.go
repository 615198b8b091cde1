// Package access holds the static role to action table consulted before any handler runs.
package access

import "github.com/hihikaAAa/label-bot/internal/model"

type Action string

const (
	Users         Action = "users"
	AddUser       Action = "add_user"
	DeleteUser    Action = "delete_user"
	Artists       Action = "artists"
	AddArtist     Action = "add_artist"
	Onboarding    Action = "onboarding"
	ReleasesAll   Action = "releases_all"
	ReleasesOwn   Action = "releases_own"
	CreateRelease Action = "create_release"
	DeleteRelease Action = "delete_release"
	CreateTask    Action = "create_task"
	AllTasks      Action = "all_tasks"
	MyTasks       Action = "my_tasks"
	OverdueTasks  Action = "overdue"
	TakeTask      Action = "take_task"
	FinishTask    Action = "finish_task"
	RejectTask    Action = "reject_task"
	DeleteTask    Action = "delete_task"
	History       Action = "history"
	HistoryAll    Action = "history_all"
	SubmitReport  Action = "submit_report"
	MyReports     Action = "my_reports"
	ReportsAll    Action = "reports_all"
	Stats         Action = "stats"
	PitchingCheck Action = "pitching_check"
	SOS           Action = "sos"
)

var table = map[model.Role][]Action{
	model.RoleFounder: {
		Users, AddUser, DeleteUser,
		Artists, AddArtist, Onboarding,
		ReleasesAll, CreateRelease, DeleteRelease,
		CreateTask, AllTasks, MyTasks, TakeTask, FinishTask, RejectTask, DeleteTask,
		HistoryAll, ReportsAll, Stats, PitchingCheck,
	},
	model.RoleANR: {
		Artists, AddArtist, Onboarding,
		ReleasesOwn, CreateRelease,
		CreateTask, MyTasks, TakeTask, FinishTask, RejectTask,
		History, SOS,
	},
	model.RoleDesigner: {
		MyTasks, OverdueTasks, TakeTask, FinishTask, RejectTask,
		History, SOS,
	},
	model.RoleSMM: {
		SubmitReport, MyReports,
		MyTasks, TakeTask, FinishTask, RejectTask,
		History, SOS,
	},
}

var allowed = func() map[model.Role]map[Action]bool {
	out := make(map[model.Role]map[Action]bool, len(table))
	for role, actions := range table {
		set := make(map[Action]bool, len(actions))
		for _, a := range actions {
			set[a] = true
		}
		out[role] = set
	}
	return out
}()

// Allowed reports whether role may perform action. Unknown roles get nothing.
func Allowed(role model.Role, action Action) bool {
	return allowed[role][action]
}
