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

// ClassService is the part of service.ClassService the handlers call.
type ClassService interface {
	List(ctx context.Context, id auth.Identity) ([]model.Class, error)
	Get(ctx context.Context, id auth.Identity, classID int64) (*model.Class, error)
	Create(ctx context.Context, id auth.Identity, in service.ClassInput) (*model.Class, error)
	Update(ctx context.Context, id auth.Identity, classID int64, patch service.ClassPatch) error
	Delete(ctx context.Context, id auth.Identity, classID int64) error
}

// ClassHandler serves /api/classes. Every route runs behind RequireAuth and
// LoadRole; the service decides what the caller may see and change.
type ClassHandler struct {
	svc    ClassService
	logger *slog.Logger
}

// NewClassHandler creates a ClassHandler.
func NewClassHandler(svc ClassService, logger *slog.Logger) *ClassHandler {
	return &ClassHandler{svc: svc, logger: logger}
}

// classRequest is shared by POST and PATCH. Pointers tell "absent" apart
// from "set to empty", which PATCH needs.
type classRequest struct {
	Name     *string `json:"class_name"`
	Days     *string `json:"days"`
	Times    *string `json:"times"`
	Location *string `json:"location"`
	Room     *string `json:"room"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HandleList returns the classes visible to the caller.
//
// HTTP: GET /api/classes
func (h *ClassHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	classes, err := h.svc.List(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, classes)
}

// HandleGet returns one class.
//
// HTTP: GET /api/classes/{id}
func (h *ClassHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	classID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	class, err := h.svc.Get(r.Context(), id, classID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, class)
}

// HandleCreate adds a class owned by the calling teacher. A user_id in the
// body is ignored.
//
// HTTP: POST /api/classes
// REQUEST BODY: {"class_name", "days"?, "times"?, "location"?, "room"?}
// RESPONSE: 201, Location: /api/classes/<id>
func (h *ClassHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	var req classRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	class, err := h.svc.Create(r.Context(), id, service.ClassInput{
		Name:     deref(req.Name),
		Days:     deref(req.Days),
		Times:    deref(req.Times),
		Location: deref(req.Location),
		Room:     deref(req.Room),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/classes/%d", class.ID))
	writeJSON(w, h.logger, http.StatusCreated, class)
}

// HandleUpdate changes the fields present in the body.
//
// HTTP: PATCH /api/classes/{id}
// RESPONSE: 204
func (h *ClassHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	classID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req classRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	err = h.svc.Update(r.Context(), id, classID, service.ClassPatch{
		Name:     req.Name,
		Days:     req.Days,
		Times:    req.Times,
		Location: req.Location,
		Room:     req.Room,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a class and its assignments.
//
// HTTP: DELETE /api/classes/{id}
// RESPONSE: 204
func (h *ClassHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	classID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id, classID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
