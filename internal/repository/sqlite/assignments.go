package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

// Every assignment query joins its class so that ownership (classes.user_id)
// and class_name come from the same row.
const assignmentSelect = `
	SELECT a.assignment_id, a.class_id, a.due_date, a.title, a.notes, a.category, c.class_name
	FROM assignments a
	JOIN classes c ON c.class_id = a.class_id`

func scanAssignment(s scanner) (*model.Assignment, error) {
	var a model.Assignment
	if err := s.Scan(&a.ID, &a.ClassID, &a.DueDate, &a.Title, &a.Notes, &a.Category, &a.ClassName); err != nil {
		return nil, err
	}
	return &a, nil
}

// ownsClass reports whether classID belongs to teacherID.
func ownsClass(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, classID, teacherID int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM classes WHERE class_id = ? AND user_id = ?`, classID, teacherID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking class %d: %w", classID, err)
	}
	return true, nil
}

// CreateAssignment inserts a into one of the teacher's classes and fills in
// its ID and ClassName.
func (db *DB) CreateAssignment(ctx context.Context, a *model.Assignment, teacherID int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	owned, err := ownsClass(ctx, tx, a.ClassID, teacherID)
	if err != nil {
		return err
	}
	if !owned {
		return apperror.NotFound("Class")
	}

	a.DueDate = a.DueDate.UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (class_id, due_date, title, notes, category)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ClassID, a.DueDate, a.Title, a.Notes, a.Category,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating assignment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new assignment id: %w", err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT class_name FROM classes WHERE class_id = ?`, a.ClassID,
	).Scan(&a.ClassName); err != nil {
		return fmt.Errorf("sqlite: reading class name: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing assignment: %w", err)
	}
	a.ID = id
	return nil
}

// ListAssignments returns every assignment of the teacher's classes, ordered
// by due date, then title.
func (db *DB) ListAssignments(ctx context.Context, teacherID int64) ([]model.Assignment, error) {
	rows, err := db.conn.QueryContext(ctx,
		assignmentSelect+`
		WHERE c.user_id = ?
		ORDER BY a.due_date, a.title, a.assignment_id`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]model.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning assignment row: %w", err)
		}
		assignments = append(assignments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignment retrieves one assignment of the teacher's classes.
func (db *DB) GetAssignment(ctx context.Context, id, teacherID int64) (*model.Assignment, error) {
	a, err := scanAssignment(db.conn.QueryRowContext(ctx,
		assignmentSelect+` WHERE a.assignment_id = ? AND c.user_id = ?`,
		id, teacherID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Assignment")
		}
		return nil, fmt.Errorf("sqlite: getting assignment %d: %w", id, err)
	}
	return a, nil
}

// UpdateAssignment overwrites the mutable columns of a. Moving the assignment
// to a class the teacher does not own reports the class as not found.
func (db *DB) UpdateAssignment(ctx context.Context, a *model.Assignment, teacherID int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	owned, err := ownsClass(ctx, tx, a.ClassID, teacherID)
	if err != nil {
		return err
	}
	if !owned {
		return apperror.NotFound("Class")
	}

	a.DueDate = a.DueDate.UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE assignments
		 SET class_id = ?, due_date = ?, title = ?, notes = ?, category = ?
		 WHERE assignment_id = ?
		   AND class_id IN (SELECT class_id FROM classes WHERE user_id = ?)`,
		a.ClassID, a.DueDate, a.Title, a.Notes, a.Category,
		a.ID, teacherID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating assignment %d: %w", a.ID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Assignment")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing assignment update: %w", err)
	}
	return nil
}

// DeleteAssignment removes one assignment of the teacher's classes.
func (db *DB) DeleteAssignment(ctx context.Context, id, teacherID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM assignments
		 WHERE assignment_id = ?
		   AND class_id IN (SELECT class_id FROM classes WHERE user_id = ?)`,
		id, teacherID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting assignment %d: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Assignment")
	}
	return nil
}
