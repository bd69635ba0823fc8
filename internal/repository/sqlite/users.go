package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

const userColumns = `user_id, user_name, password, first_name, last_name, role, teacher_user_id, date_created`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		teacherID sql.NullInt64
	)
	err := s.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&teacherID,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if teacherID.Valid {
		id := teacherID.Int64
		u.TeacherUserID = &id
	}
	return &u, nil
}

// CreateUser inserts a new user.
//
// The UNIQUE constraint on user_name is what actually prevents duplicates:
// two concurrent registrations for the same name both pass the service's
// pre-check, and the second INSERT fails here with apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now().UTC()

	var teacherID sql.NullInt64
	if u.TeacherUserID != nil {
		teacherID = sql.NullInt64{Int64: *u.TeacherUserID, Valid: true}
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (user_name, password, first_name, last_name, role, teacher_user_id, date_created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Role,
		teacherID,
		u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user_name", "Username already taken")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", u.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	u.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// FindByUsername returns the user with the given name, or (nil, nil).
func (db *DB) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_name = ?`, username,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding user %q: %w", username, err)
	}
	return u, nil
}

// ListStudentsByTeacher returns the students whose teacher_user_id is teacherID.
func (db *DB) ListStudentsByTeacher(ctx context.Context, teacherID int64) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE teacher_user_id = ? AND role = ?
		 ORDER BY last_name, first_name, user_id`,
		teacherID, model.RoleStudent,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing students of %d: %w", teacherID, err)
	}
	defer rows.Close()

	students := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		students = append(students, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return students, nil
}
