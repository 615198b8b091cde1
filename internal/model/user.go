package model

import (
	"fmt"
	"time"
)

// User is a staff member identified by their Telegram id.
type User struct {
	ID        int64
	Username  string
	Name      string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

func (u User) Display() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return "@" + u.Username
	default:
		return fmt.Sprintf("id%d", u.ID)
	}
}
