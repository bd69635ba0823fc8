// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the kind of account a user holds.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User represents a registered account.
//
// PasswordHash is tagged `json:"-"` so a User can be encoded straight into a
// response without ever exposing the hash.
//
// TeacherUserID is only set for students and points at the owning teacher.
// Teachers never carry one.
type User struct {
	ID            int64     `json:"user_id"`
	Username      string    `json:"user_name"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          Role      `json:"role"`
	TeacherUserID *int64    `json:"teacher_user_id"`
	CreatedAt     time.Time `json:"date_created"`
}
