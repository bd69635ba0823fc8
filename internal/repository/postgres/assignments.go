package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

const assignmentSelect = `
	SELECT a.assignment_id, a.class_id, a.due_date, a.title, a.notes, a.category, c.class_name
	FROM assignments a
	JOIN classes c ON c.class_id = a.class_id`

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var a model.Assignment
	if err := row.Scan(&a.ID, &a.ClassID, &a.DueDate, &a.Title, &a.Notes, &a.Category, &a.ClassName); err != nil {
		return nil, err
	}
	return &a, nil
}

// classNameIfOwned returns the class name when classID belongs to teacherID.
func (s *Store) classNameIfOwned(ctx context.Context, classID, teacherID int64) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT class_name FROM classes WHERE class_id = $1 AND user_id = $2`,
		classID, teacherID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NotFound("Class")
		}
		return "", fmt.Errorf("postgres: checking class %d: %w", classID, err)
	}
	return name, nil
}

// insertAssignment re-checks ownership itself, so a class deleted or handed
// over between the two statements still yields "Class Not Found".
// Select-list parameters take no type from the target columns, hence the
// explicit casts.
const insertAssignment = `INSERT INTO assignments (class_id, due_date, title, notes, category)
		 SELECT class_id, $3::timestamptz, $4::text, $5::text, $6::text FROM classes
		 WHERE class_id = $1 AND user_id = $2
		 RETURNING assignment_id`

// CreateAssignment inserts a into one of the teacher's classes.
func (s *Store) CreateAssignment(ctx context.Context, a *model.Assignment, teacherID int64) error {
	className, err := s.classNameIfOwned(ctx, a.ClassID, teacherID)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx, insertAssignment,
		a.ClassID, teacherID, a.DueDate, a.Title, a.Notes, a.Category,
	).Scan(&a.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("Class")
		}
		return fmt.Errorf("postgres: creating assignment: %w", err)
	}
	a.ClassName = className
	return nil
}

// ListAssignments returns every assignment of the teacher's classes, ordered
// by due date, then title.
func (s *Store) ListAssignments(ctx context.Context, teacherID int64) ([]model.Assignment, error) {
	rows, err := s.pool.Query(ctx,
		assignmentSelect+`
		WHERE c.user_id = $1
		ORDER BY a.due_date, a.title, a.assignment_id`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]model.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning assignment row: %w", err)
		}
		assignments = append(assignments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignment retrieves one assignment of the teacher's classes.
func (s *Store) GetAssignment(ctx context.Context, id, teacherID int64) (*model.Assignment, error) {
	a, err := scanAssignment(s.pool.QueryRow(ctx,
		assignmentSelect+` WHERE a.assignment_id = $1 AND c.user_id = $2`,
		id, teacherID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Assignment")
		}
		return nil, fmt.Errorf("postgres: getting assignment %d: %w", id, err)
	}
	return a, nil
}

// UpdateAssignment overwrites the mutable columns of a.
func (s *Store) UpdateAssignment(ctx context.Context, a *model.Assignment, teacherID int64) error {
	if _, err := s.classNameIfOwned(ctx, a.ClassID, teacherID); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE assignments
		 SET class_id = $1, due_date = $2, title = $3, notes = $4, category = $5
		 WHERE assignment_id = $6
		   AND class_id IN (SELECT class_id FROM classes WHERE user_id = $7)
		   AND EXISTS (SELECT 1 FROM classes WHERE class_id = $1 AND user_id = $7)`,
		a.ClassID, a.DueDate, a.Title, a.Notes, a.Category, a.ID, teacherID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating assignment %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Assignment")
	}
	return nil
}

// DeleteAssignment removes one assignment of the teacher's classes.
func (s *Store) DeleteAssignment(ctx context.Context, id, teacherID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM assignments
		 WHERE assignment_id = $1
		   AND class_id IN (SELECT class_id FROM classes WHERE user_id = $2)`,
		id, teacherID,
	)
	if err != nil {
		return fmt.Errorf("postgres: deleting assignment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Assignment")
	}
	return nil
}
