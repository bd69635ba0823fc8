package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

const classColumns = `class_id, class_name, user_id, days, times, location, room`

func scanClass(s scanner) (*model.Class, error) {
	var c model.Class
	if err := s.Scan(&c.ID, &c.Name, &c.TeacherID, &c.Days, &c.Times, &c.Location, &c.Room); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClass inserts c and sets its ID. c.TeacherID must be set.
func (db *DB) CreateClass(ctx context.Context, c *model.Class) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO classes (class_name, user_id, days, times, location, room)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.TeacherID, c.Days, c.Times, c.Location, c.Room,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating class: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new class id: %w", err)
	}
	c.ID = id
	return nil
}

// ListClasses returns the teacher's classes ordered by name.
func (db *DB) ListClasses(ctx context.Context, teacherID int64) ([]model.Class, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+classColumns+` FROM classes
		 WHERE user_id = ?
		 ORDER BY class_name, class_id`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing classes: %w", err)
	}
	defer rows.Close()

	classes := make([]model.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning class row: %w", err)
		}
		classes = append(classes, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating classes: %w", err)
	}
	return classes, nil
}

// GetClass retrieves one of the teacher's classes.
// Returns apperror.ErrNotFound if it does not exist or belongs to someone else.
func (db *DB) GetClass(ctx context.Context, id, teacherID int64) (*model.Class, error) {
	c, err := scanClass(db.conn.QueryRowContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE class_id = ? AND user_id = ?`,
		id, teacherID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Class")
		}
		return nil, fmt.Errorf("sqlite: getting class %d: %w", id, err)
	}
	return c, nil
}

// UpdateClass overwrites the mutable columns of c.
func (db *DB) UpdateClass(ctx context.Context, c *model.Class) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE classes
		 SET class_name = ?, days = ?, times = ?, location = ?, room = ?
		 WHERE class_id = ? AND user_id = ?`,
		c.Name, c.Days, c.Times, c.Location, c.Room,
		c.ID, c.TeacherID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating class %d: %w", c.ID, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Class")
	}
	return nil
}

// DeleteClass removes a class and its assignments in one transaction.
func (db *DB) DeleteClass(ctx context.Context, id, teacherID int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx,
		`DELETE FROM classes WHERE class_id = ? AND user_id = ?`,
		id, teacherID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting class %d: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Class")
	}

	// Covered by ON DELETE CASCADE too, but only when foreign_keys is on for
	// this connection.
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE class_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting assignments of class %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing class delete: %w", err)
	}
	return nil
}
