package model

type Role string

const (
	RoleFounder  Role = "founder"
	RoleANR      Role = "anr"
	RoleDesigner Role = "designer"
	RoleSMM      Role = "smm"
)

// Roles lists every role in the order they are offered in forms.
var Roles = []Role{RoleFounder, RoleANR, RoleDesigner, RoleSMM}

var roleTitles = map[Role]string{
	RoleFounder:  "👑 Основатель",
	RoleANR:      "🎧 A&R-менеджер",
	RoleDesigner: "🎨 Дизайнер",
	RoleSMM:      "📱 SMM",
}

func (r Role) Valid() bool {
	_, ok := roleTitles[r]
	return ok
}

func (r Role) Title() string {
	if t, ok := roleTitles[r]; ok {
		return t
	}
	return string(r)
}
