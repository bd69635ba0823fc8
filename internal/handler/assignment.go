package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/classroom/internal/auth"
	"github.com/sakif/classroom/internal/model"
	"github.com/sakif/classroom/internal/service"
)

// AssignmentService is the part of service.AssignmentService the handlers call.
type AssignmentService interface {
	List(ctx context.Context, id auth.Identity) ([]model.Assignment, error)
	Get(ctx context.Context, id auth.Identity, assignmentID int64) (*model.Assignment, error)
	Create(ctx context.Context, id auth.Identity, in service.AssignmentInput) (*model.Assignment, error)
	Update(ctx context.Context, id auth.Identity, assignmentID int64, patch service.AssignmentPatch) (*model.Assignment, error)
	Delete(ctx context.Context, id auth.Identity, assignmentID int64) error
}

// AssignmentHandler serves /api/assignments.
type AssignmentHandler struct {
	svc    AssignmentService
	logger *slog.Logger
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(svc AssignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, logger: logger}
}

// assignmentRequest is shared by POST and PATCH. due_date stays a string so
// the service can report a bad date with its own message.
type assignmentRequest struct {
	ClassID  *int64  `json:"class_id"`
	DueDate  *string `json:"due_date"`
	Title    *string `json:"title"`
	Notes    *string `json:"notes"`
	Category *string `json:"category"`
}

// HandleList returns the assignments of every class visible to the caller.
//
// HTTP: GET /api/assignments
func (h *AssignmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.svc.List(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, list)
}

// HandleGet returns one assignment.
//
// HTTP: GET /api/assignments/{id}
func (h *AssignmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	assignmentID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	a, err := h.svc.Get(r.Context(), id, assignmentID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, a)
}

// HandleCreate adds an assignment to one of the caller's classes.
//
// HTTP: POST /api/assignments
// REQUEST BODY: {"class_id", "due_date", "title", "notes", "category"}
// RESPONSE: 201, Location: /api/assignments/<id>
func (h *AssignmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	var req assignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in := service.AssignmentInput{
		DueDate:  deref(req.DueDate),
		Title:    deref(req.Title),
		Notes:    deref(req.Notes),
		Category: deref(req.Category),
	}
	if req.ClassID != nil {
		in.ClassID = *req.ClassID
	}

	a, err := h.svc.Create(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/assignments/%d", a.ID))
	writeJSON(w, h.logger, http.StatusCreated, a)
}

// HandleUpdate changes the fields present in the body and returns the
// stored assignment.
//
// HTTP: PATCH /api/assignments/{id}
// RESPONSE: 200 with the updated assignment
func (h *AssignmentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	assignmentID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req assignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	a, err := h.svc.Update(r.Context(), id, assignmentID, service.AssignmentPatch{
		ClassID:  req.ClassID,
		DueDate:  req.DueDate,
		Title:    req.Title,
		Notes:    req.Notes,
		Category: req.Category,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, a)
}

// HandleDelete removes an assignment.
//
// HTTP: DELETE /api/assignments/{id}
// RESPONSE: 204
func (h *AssignmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	assignmentID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id, assignmentID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
