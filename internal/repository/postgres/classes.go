package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

const classColumns = `class_id, class_name, user_id, days, times, location, room`

func scanClass(row pgx.Row) (*model.Class, error) {
	var c model.Class
	if err := row.Scan(&c.ID, &c.Name, &c.TeacherID, &c.Days, &c.Times, &c.Location, &c.Room); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClass inserts c and sets its ID.
func (s *Store) CreateClass(ctx context.Context, c *model.Class) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO classes (class_name, user_id, days, times, location, room)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING class_id`,
		c.Name, c.TeacherID, c.Days, c.Times, c.Location, c.Room,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating class: %w", err)
	}
	return nil
}

// ListClasses returns the teacher's classes ordered by name.
func (s *Store) ListClasses(ctx context.Context, teacherID int64) ([]model.Class, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+classColumns+` FROM classes
		 WHERE user_id = $1
		 ORDER BY class_name, class_id`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing classes: %w", err)
	}
	defer rows.Close()

	classes := make([]model.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning class row: %w", err)
		}
		classes = append(classes, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating classes: %w", err)
	}
	return classes, nil
}

// GetClass retrieves one of the teacher's classes.
func (s *Store) GetClass(ctx context.Context, id, teacherID int64) (*model.Class, error) {
	c, err := scanClass(s.pool.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes WHERE class_id = $1 AND user_id = $2`,
		id, teacherID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Class")
		}
		return nil, fmt.Errorf("postgres: getting class %d: %w", id, err)
	}
	return c, nil
}

// UpdateClass overwrites the mutable columns of c.
func (s *Store) UpdateClass(ctx context.Context, c *model.Class) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE classes
		 SET class_name = $1, days = $2, times = $3, location = $4, room = $5
		 WHERE class_id = $6 AND user_id = $7`,
		c.Name, c.Days, c.Times, c.Location, c.Room, c.ID, c.TeacherID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating class %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Class")
	}
	return nil
}

// DeleteClass removes a class. Its assignments go with it through
// ON DELETE CASCADE, which PostgreSQL always enforces.
func (s *Store) DeleteClass(ctx context.Context, id, teacherID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM classes WHERE class_id = $1 AND user_id = $2`,
		id, teacherID,
	)
	if err != nil {
		return fmt.Errorf("postgres: deleting class %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Class")
	}
	return nil
}
