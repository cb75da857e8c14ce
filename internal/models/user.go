package models

import "time"

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleWarden     Role = "warden"
	RoleWatchman   Role = "watchman"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleWarden, RoleWatchman:
		return true
	}
	return false
}

// Scope is the dashboard header line shown under the user's name.
func (r Role) Scope() string {
	switch r {
	case RoleSuperadmin:
		return "You can view all alerts"
	case RoleWarden:
		return "You can view alerts within the hostel"
	case RoleWatchman:
		return "You can view alerts outside the hostel"
	default:
		return ""
	}
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Session is the signed-in state: who is logged in and under which token.
// It is created by login and destroyed by logout.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
