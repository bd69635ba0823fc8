// Package repository defines the storage interfaces the services depend on.
//
// Two implementations exist: sqlite (embedded, the default) and postgres.
// Both enforce ownership inside the query: every class and assignment lookup
// takes the owning teacher's ID, and a row owned by another teacher is
// reported as apperror.ErrNotFound exactly like a row that does not exist.
package repository

import (
	"context"

	"github.com/sakif/classroom/internal/model"
)

// UserRepository is the user directory.
type UserRepository interface {
	// CreateUser inserts u and sets its ID and CreatedAt. A taken username is
	// reported as apperror.ErrConflict.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	// FindByUsername returns (nil, nil) when no user has that name.
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	ListStudentsByTeacher(ctx context.Context, teacherID int64) ([]model.User, error)
}

// ClassRepository stores classes. teacherID is always the owner filter.
type ClassRepository interface {
	CreateClass(ctx context.Context, c *model.Class) error
	ListClasses(ctx context.Context, teacherID int64) ([]model.Class, error)
	GetClass(ctx context.Context, id, teacherID int64) (*model.Class, error)
	// UpdateClass writes every mutable column of c, scoped by c.TeacherID.
	UpdateClass(ctx context.Context, c *model.Class) error
	// DeleteClass removes the class and its assignments.
	DeleteClass(ctx context.Context, id, teacherID int64) error
}

// AssignmentRepository stores assignments. Ownership is resolved through the
// assignment's class.
type AssignmentRepository interface {
	// CreateAssignment inserts a and sets its ID. The class must belong to
	// teacherID, otherwise the class is reported as not found.
	CreateAssignment(ctx context.Context, a *model.Assignment, teacherID int64) error
	ListAssignments(ctx context.Context, teacherID int64) ([]model.Assignment, error)
	GetAssignment(ctx context.Context, id, teacherID int64) (*model.Assignment, error)
	// UpdateAssignment writes every mutable column of a. Both the current and
	// the target class must belong to teacherID.
	UpdateAssignment(ctx context.Context, a *model.Assignment, teacherID int64) error
	DeleteAssignment(ctx context.Context, id, teacherID int64) error
}

// Store is everything the server needs from a backend.
type Store interface {
	UserRepository
	ClassRepository
	AssignmentRepository
	Ping(ctx context.Context) error
	Close() error
}
