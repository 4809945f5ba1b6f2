package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/handler/http/response"
)

type ShiftHandler interface {
	CheckConflicts(w http.ResponseWriter, r *http.Request)
	Assign(w http.ResponseWriter, r *http.Request)
	Unassign(w http.ResponseWriter, r *http.Request)
	Calendar(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	shiftService shift.Service
}

func NewShiftHandler(shiftService shift.Service) ShiftHandler {
	return &shiftHandlerImpl{
		shiftService: shiftService,
	}
}

// CheckConflicts implements ShiftHandler.
func (h *shiftHandlerImpl) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req shift.ConflictCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.shiftService.CheckConflicts(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Assign implements ShiftHandler.
func (h *shiftHandlerImpl) Assign(w http.ResponseWriter, r *http.Request) {
	var req shift.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ShiftID = chi.URLParam(r, "id")

	result, err := h.shiftService.Assign(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Person assigned successfully"
	if result.Overridden {
		message = "Person assigned despite conflicting shifts"
	}
	response.Created(w, message, result)
}

// Unassign implements ShiftHandler.
func (h *shiftHandlerImpl) Unassign(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "id")
	personID := chi.URLParam(r, "personID")

	if err := h.shiftService.Unassign(r.Context(), shiftID, personID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Person removed from shift", nil)
}

// Calendar implements ShiftHandler.
func (h *shiftHandlerImpl) Calendar(w http.ResponseWriter, r *http.Request) {
	req := shift.CalendarRequest{
		Month: r.URL.Query().Get("month"),
	}
	if sectorID := r.URL.Query().Get("sector_id"); sectorID != "" {
		req.SectorID = &sectorID
	}

	result, err := h.shiftService.Calendar(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
