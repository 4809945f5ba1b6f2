package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/handler/http/response"
)

type CheckInHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	MyPending(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
}

type checkInHandlerImpl struct {
	checkInService checkin.Service
}

func NewCheckInHandler(checkInService checkin.Service) CheckInHandler {
	return &checkInHandlerImpl{
		checkInService: checkInService,
	}
}

func decodeCheckIn(w http.ResponseWriter, r *http.Request) (checkin.CheckInRequest, bool) {
	var req checkin.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode check-in request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return req, false
	}
	return req, true
}

// Create implements CheckInHandler. Out-of-location check-ins are recorded
// and answered with 201 like any other.
func (h *checkInHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckIn(w, r)
	if !ok {
		return
	}

	result, err := h.checkInService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Check-in recorded successfully"
	if result.Status == checkin.StatusOutOfLocation {
		message = "Check-in recorded outside the allowed radius"
	}
	response.Created(w, message, result)
}

// Validate implements CheckInHandler.
func (h *checkInHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckIn(w, r)
	if !ok {
		return
	}

	result, err := h.checkInService.Validate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MyPending implements CheckInHandler.
func (h *checkInHandlerImpl) MyPending(w http.ResponseWriter, r *http.Request) {
	results, err := h.checkInService.MyPending(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// List implements CheckInHandler.
func (h *checkInHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := checkin.ListFilter{}

	if shiftID := r.URL.Query().Get("shift_id"); shiftID != "" {
		filter.ShiftID = &shiftID
	}

	if personID := r.URL.Query().Get("person_id"); personID != "" {
		filter.PersonID = &personID
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.checkInService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Stats implements CheckInHandler.
func (h *checkInHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	req := checkin.StatsRequest{
		StartDate: r.URL.Query().Get("start"),
		EndDate:   r.URL.Query().Get("end"),
	}

	result, err := h.checkInService.Stats(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Correct implements CheckInHandler.
func (h *checkInHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	var req checkin.CorrectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.checkInService.Correct(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check-in corrected successfully", result)
}
