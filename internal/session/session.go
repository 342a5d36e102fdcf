// Package session carries the identity a room session runs under. It is
// resolved once at room entry and read-only afterwards; the rest of the core
// branches only on Role, never on literal identity values.
package session

import "strings"

// Role decides which messages a session may see.
type Role string

const (
	// RoleOrdinary sessions never see soft-deleted messages.
	RoleOrdinary Role = "ordinary"
	// RoleModerator sessions see every message, tagged with deletion status.
	RoleModerator Role = "moderator"
)

// Context identifies the user behind a room session.
type Context struct {
	UserID uint
	Name   string
	Email  string
	Role   Role
}

// Resolve builds a session context, assigning RoleModerator when the user's
// email matches the configured moderator identity.
func Resolve(userID uint, name, email, moderatorEmail string) Context {
	role := RoleOrdinary
	if moderatorEmail != "" && strings.EqualFold(email, moderatorEmail) {
		role = RoleModerator
	}
	return Context{
		UserID: userID,
		Name:   name,
		Email:  email,
		Role:   role,
	}
}
