package models

import "strings"

// Role is the authorization level of a user
type Role int

const (
	// RoleUser may manage own reminders
	RoleUser Role = 1
	// RoleAdmin may manage all reminders
	RoleAdmin Role = 3
)

// User is the recipient of reminder notifications
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// DisplayName returns "First Last", or "User" when both names are empty
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "User"
	}
	return name
}
