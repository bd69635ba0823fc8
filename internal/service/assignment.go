package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/auth"
	"github.com/sakif/classroom/internal/model"
	"github.com/sakif/classroom/internal/repository"
)

const (
	msgEmptyAssignmentPatch = "Request body must contain a class_id, due_date, title, notes or category"
	msgBadDueDate           = "due_date must be an RFC 3339 timestamp or a YYYY-MM-DD date"
)

// AssignmentService handles business logic for assignments.
type AssignmentService struct {
	repo   repository.AssignmentRepository
	logger *slog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(repo repository.AssignmentRepository, logger *slog.Logger) *AssignmentService {
	return &AssignmentService{
		repo:   repo,
		logger: logger,
	}
}

// AssignmentInput is the body of a create request. Zero values count as missing.
type AssignmentInput struct {
	ClassID  int64
	DueDate  string
	Title    string
	Notes    string
	Category string
}

// AssignmentPatch lists the fields to change. nil means "leave as is".
type AssignmentPatch struct {
	ClassID  *int64
	DueDate  *string
	Title    *string
	Notes    *string
	Category *string
}

func (p AssignmentPatch) empty() bool {
	return p.ClassID == nil && p.DueDate == nil && p.Title == nil && p.Notes == nil && p.Category == nil
}

// parseDueDate accepts a full RFC 3339 timestamp or a bare date (midnight UTC).
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.ValidationFailed("due_date", msgBadDueDate)
}

// List returns the assignments of every class visible to the caller, ordered
// by due date, then title.
func (s *AssignmentService) List(ctx context.Context, id auth.Identity) ([]model.Assignment, error) {
	teacherID, ok := auth.OwnerScope(id)
	if !ok {
		return []model.Assignment{}, nil
	}

	list, err := s.repo.ListAssignments(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("service/assignment: listing: %w", err)
	}
	return list, nil
}

// Get returns one visible assignment.
func (s *AssignmentService) Get(ctx context.Context, id auth.Identity, assignmentID int64) (*model.Assignment, error) {
	teacherID, ok := auth.OwnerScope(id)
	if !ok {
		return nil, apperror.NotFound("Assignment")
	}
	return passNotFound(s.repo.GetAssignment(ctx, assignmentID, teacherID))
}

// Create adds an assignment to one of the calling teacher's classes.
func (s *AssignmentService) Create(ctx context.Context, id auth.Identity, in AssignmentInput) (*model.Assignment, error) {
	if err := auth.RequireRole(id, model.RoleTeacher); err != nil {
		return nil, err
	}

	if in.ClassID == 0 {
		return nil, apperror.MissingField("class_id")
	}
	for _, f := range []struct{ name, value string }{
		{"due_date", in.DueDate},
		{"title", in.Title},
		{"notes", in.Notes},
		{"category", in.Category},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, apperror.MissingField(f.name)
		}
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	a := &model.Assignment{
		ClassID:  in.ClassID,
		DueDate:  due,
		Title:    in.Title,
		Notes:    in.Notes,
		Category: in.Category,
	}
	if err := s.repo.CreateAssignment(ctx, a, id.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/assignment: creating: %w", err)
	}

	s.logger.Info("assignment created",
		slog.Int64("assignmentID", a.ID),
		slog.Int64("classID", a.ClassID),
	)
	return a, nil
}

// Update applies patch to one of the calling teacher's assignments and
// returns the stored result.
func (s *AssignmentService) Update(ctx context.Context, id auth.Identity, assignmentID int64, patch AssignmentPatch) (*model.Assignment, error) {
	if err := auth.RequireRole(id, model.RoleTeacher); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, apperror.ValidationFailed("", msgEmptyAssignmentPatch)
	}

	a, err := passNotFound(s.repo.GetAssignment(ctx, assignmentID, id.UserID))
	if err != nil {
		return nil, err
	}

	if patch.ClassID != nil {
		a.ClassID = *patch.ClassID
	}
	if patch.DueDate != nil {
		due, err := parseDueDate(*patch.DueDate)
		if err != nil {
			return nil, err
		}
		a.DueDate = due
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, apperror.ValidationFailed("title", "title must not be empty")
		}
		a.Title = *patch.Title
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
	if patch.Category != nil {
		a.Category = *patch.Category
	}

	if err := s.repo.UpdateAssignment(ctx, a, id.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/assignment: updating %d: %w", assignmentID, err)
	}

	// Re-read so class_name reflects a class move.
	return passNotFound(s.repo.GetAssignment(ctx, assignmentID, id.UserID))
}

// Delete removes one of the calling teacher's assignments.
func (s *AssignmentService) Delete(ctx context.Context, id auth.Identity, assignmentID int64) error {
	if err := auth.RequireRole(id, model.RoleTeacher); err != nil {
		return err
	}

	if err := s.repo.DeleteAssignment(ctx, assignmentID, id.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/assignment: deleting %d: %w", assignmentID, err)
	}

	s.logger.Info("assignment deleted", slog.Int64("assignmentID", assignmentID))
	return nil
}
