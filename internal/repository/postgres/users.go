package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

const userColumns = `user_id, user_name, password, first_name, last_name, role, teacher_user_id, date_created`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u         model.User
		role      string
		teacherID pgtype.Int8
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&role, &teacherID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	if teacherID.Valid {
		id := teacherID.Int64
		u.TeacherUserID = &id
	}
	return &u, nil
}

// CreateUser inserts u and fills ID and CreatedAt from the database.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	var teacherID pgtype.Int8
	if u.TeacherUserID != nil {
		teacherID = pgtype.Int8{Int64: *u.TeacherUserID, Valid: true}
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (user_name, password, first_name, last_name, role, teacher_user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING user_id, date_created`,
		u.Username, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), teacherID,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user_name", "Username already taken")
		}
		return fmt.Errorf("postgres: inserting user %q: %w", u.Username, err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}
	return u, nil
}

// FindByUsername returns the user with the given name, or (nil, nil).
func (s *Store) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_name = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: finding user %q: %w", username, err)
	}
	return u, nil
}

// ListStudentsByTeacher returns the students whose teacher_user_id is teacherID.
func (s *Store) ListStudentsByTeacher(ctx context.Context, teacherID int64) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE teacher_user_id = $1 AND role = $2
		 ORDER BY last_name, first_name, user_id`,
		teacherID, string(model.RoleStudent),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing students of %d: %w", teacherID, err)
	}
	defer rows.Close()

	students := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		students = append(students, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return students, nil
}
