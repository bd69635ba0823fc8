package model

import "time"

// Assignment belongs to a Class and, through it, to the class's teacher.
// ClassName is read-only: repositories fill it from the joined class row.
type Assignment struct {
	ID        int64     `json:"assignment_id"`
	ClassID   int64     `json:"class_id"`
	DueDate   time.Time `json:"due_date"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	Category  string    `json:"category"`
	ClassName string    `json:"class_name"`
}
