package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/auth"
	"github.com/sakif/classroom/internal/model"
	"github.com/sakif/classroom/internal/repository"
)

const msgEmptyClassPatch = "Request body must contain a class_name, days, times, location or room"

// ClassService handles business logic for classes.
type ClassService struct {
	repo   repository.ClassRepository
	logger *slog.Logger
}

// NewClassService creates a new ClassService.
func NewClassService(repo repository.ClassRepository, logger *slog.Logger) *ClassService {
	return &ClassService{
		repo:   repo,
		logger: logger,
	}
}

// ClassInput is the body of a create request.
type ClassInput struct {
	Name     string
	Days     string
	Times    string
	Location string
	Room     string
}

// ClassPatch lists the fields to change. nil means "leave as is".
type ClassPatch struct {
	Name     *string
	Days     *string
	Times    *string
	Location *string
	Room     *string
}

func (p ClassPatch) empty() bool {
	return p.Name == nil && p.Days == nil && p.Times == nil && p.Location == nil && p.Room == nil
}

// List returns the classes visible to the caller: a teacher's own classes,
// or a student's teacher's classes.
func (s *ClassService) List(ctx context.Context, id auth.Identity) ([]model.Class, error) {
	teacherID, ok := auth.OwnerScope(id)
	if !ok {
		return []model.Class{}, nil
	}

	classes, err := s.repo.ListClasses(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("service/class: listing: %w", err)
	}
	return classes, nil
}

// Get returns one visible class.
func (s *ClassService) Get(ctx context.Context, id auth.Identity, classID int64) (*model.Class, error) {
	teacherID, ok := auth.OwnerScope(id)
	if !ok {
		return nil, apperror.NotFound("Class")
	}
	return passNotFound(s.repo.GetClass(ctx, classID, teacherID))
}

// Create adds a class owned by the calling teacher.
func (s *ClassService) Create(ctx context.Context, id auth.Identity, in ClassInput) (*model.Class, error) {
	if err := auth.RequireRole(id, model.RoleTeacher); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.MissingField("class_name")
	}

	c := &model.Class{
		Name:      name,
		TeacherID: id.UserID,
		Days:      in.Days,
		Times:     in.Times,
		Location:  in.Location,
		Room:      in.Room,
	}
	if err := s.repo.CreateClass(ctx, c); err != nil {
		return nil, fmt.Errorf("service/class: creating: %w", err)
	}

	s.logger.Info("class created",
		slog.Int64("classID", c.ID),
		slog.Int64("teacherID", c.TeacherID),
	)
	return c, nil
}

// Update applies patch to one of the calling teacher's classes.
func (s *ClassService) Update(ctx context.Context, id auth.Identity, classID int64, patch ClassPatch) error {
	if err := auth.RequireRole(id, model.RoleTeacher); err != nil {
		return err
	}
	if patch.empty() {
		return apperror.ValidationFailed("", msgEmptyClassPatch)
	}

	c, err := passNotFound(s.repo.GetClass(ctx, classID, id.UserID))
	if err != nil {
		return err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return apperror.ValidationFailed("class_name", "class_name must not be empty")
		}
		c.Name = name
	}
	if patch.Days != nil {
		c.Days = *patch.Days
	}
	if patch.Times != nil {
		c.Times = *patch.Times
	}
	if patch.Location != nil {
		c.Location = *patch.Location
	}
	if patch.Room != nil {
		c.Room = *patch.Room
	}

	if err := s.repo.UpdateClass(ctx, c); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/class: updating %d: %w", classID, err)
	}
	return nil
}

// Delete removes one of the calling teacher's classes and its assignments.
func (s *ClassService) Delete(ctx context.Context, id auth.Identity, classID int64) error {
	if err := auth.RequireRole(id, model.RoleTeacher); err != nil {
		return err
	}

	if err := s.repo.DeleteClass(ctx, classID, id.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/class: deleting %d: %w", classID, err)
	}

	s.logger.Info("class deleted", slog.Int64("classID", classID))
	return nil
}

// passNotFound returns apperror.ErrNotFound unchanged and wraps everything
// else as an internal error.
func passNotFound[T any](v *T, err error) (*T, error) {
	if err == nil {
		return v, nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("service: %w", err)
}
