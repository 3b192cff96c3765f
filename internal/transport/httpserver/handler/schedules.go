package handler

import (
	"errors"
	"net/http"
	"strings"

	scheduledomain "care-companion-go/internal/domain/schedule"
	"github.com/go-chi/chi/v5"
)

type scheduleRequest struct {
	ID           string `json:"id"`
	ElderlyID    string `json:"elderly_id"`
	FamilyUserID string `json:"family_user_id"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	ScheduledAt  int64  `json:"scheduled_at"`
	Category     string `json:"category"`
	IsCompleted  bool   `json:"is_completed"`
}

type scheduleResponse struct {
	ID          string `json:"id"`
	ElderlyID   string `json:"elderly_id"`
	CreatedBy   string `json:"created_by"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	ScheduledAt int64  `json:"scheduled_at"`
	Category    string `json:"category"`
	IsCompleted bool   `json:"is_completed"`
}

type scheduleListResponse struct {
	Items []scheduleResponse `json:"items"`
	Total int                `json:"total"`
}

func (h *Handlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	familyUserID := strings.TrimSpace(query.Get("family_user_id"))

	var (
		schedules []scheduledomain.Schedule
		err       error
	)
	if familyUserID != "" {
		elderlyIDs := parseCSV(query.Get("elderly_ids"))
		schedules, err = h.Schedules.ListForFamilyMember(r.Context(), familyUserID, elderlyIDs)
	} else {
		schedules, err = h.Schedules.ListAll(r.Context())
	}
	if err != nil {
		h.log.InternalError("schedules.list failed", err, "family_user_id", familyUserID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toScheduleListResponse(schedules))
}

func (h *Handlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.FamilyUserID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "family_user_id is required")
		return
	}

	schedule, err := h.Schedules.Create(r.Context(), toDomainSchedule(req), req.FamilyUserID)
	if err != nil {
		switch {
		case errors.Is(err, scheduledomain.ErrInvalidSchedule):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, scheduledomain.ErrScheduleExists):
			h.log.BusinessError("schedules.create: duplicate id", err, "schedule_id", req.ID)
			writeError(w, http.StatusConflict, "schedule_exists", "schedule already exists")
		default:
			h.log.InternalError("schedules.create failed", err, "elderly_id", req.ElderlyID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toScheduleResponse(*schedule))
}

func (h *Handlers) ListElderlySchedules(w http.ResponseWriter, r *http.Request) {
	elderlyID := chi.URLParam(r, "elderly_id")

	schedules, err := h.Schedules.ListForElderly(r.Context(), elderlyID)
	if err != nil {
		h.log.InternalError("schedules.list_for_elderly failed", err, "elderly_id", elderlyID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toScheduleListResponse(schedules))
}

func (h *Handlers) ListUpcomingSchedules(w http.ResponseWriter, r *http.Request) {
	elderlyID := chi.URLParam(r, "elderly_id")

	limit, err := parseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}

	schedules, err := h.Schedules.ListUpcoming(r.Context(), elderlyID, limit)
	if err != nil {
		h.log.InternalError("schedules.list_upcoming failed", err, "elderly_id", elderlyID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toScheduleListResponse(schedules))
}

func (h *Handlers) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "id")

	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	schedule, err := h.Schedules.Update(r.Context(), scheduleID, toDomainSchedule(req))
	if err != nil {
		switch {
		case errors.Is(err, scheduledomain.ErrInvalidSchedule):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, scheduledomain.ErrScheduleNotFound):
			h.log.BusinessError("schedules.update: not found", err, "schedule_id", scheduleID)
			writeError(w, http.StatusNotFound, "schedule_not_found", "schedule not found")
		default:
			h.log.InternalError("schedules.update failed", err, "schedule_id", scheduleID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(*schedule))
}

func (h *Handlers) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "id")

	if err := h.Schedules.Delete(r.Context(), scheduleID); err != nil {
		if errors.Is(err, scheduledomain.ErrScheduleNotFound) {
			h.log.BusinessError("schedules.delete: not found", err, "schedule_id", scheduleID)
			writeError(w, http.StatusNotFound, "schedule_not_found", "schedule not found")
			return
		}
		h.log.InternalError("schedules.delete failed", err, "schedule_id", scheduleID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CompleteSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "id")

	schedule, err := h.Schedules.MarkComplete(r.Context(), scheduleID)
	if err != nil {
		if errors.Is(err, scheduledomain.ErrScheduleNotFound) {
			h.log.BusinessError("schedules.complete: not found", err, "schedule_id", scheduleID)
			writeError(w, http.StatusNotFound, "schedule_not_found", "schedule not found")
			return
		}
		h.log.InternalError("schedules.complete failed", err, "schedule_id", scheduleID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(*schedule))
}

func toDomainSchedule(req scheduleRequest) scheduledomain.Schedule {
	return scheduledomain.Schedule{
		ID:          req.ID,
		ElderlyID:   req.ElderlyID,
		Title:       req.Title,
		Message:     req.Message,
		ScheduledAt: req.ScheduledAt,
		Category:    scheduledomain.Category(req.Category),
		IsCompleted: req.IsCompleted,
	}
}

func toScheduleResponse(s scheduledomain.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:          s.ID,
		ElderlyID:   s.ElderlyID,
		CreatedBy:   s.CreatedBy,
		Title:       s.Title,
		Message:     s.Message,
		ScheduledAt: s.ScheduledAt,
		Category:    string(s.Category),
		IsCompleted: s.IsCompleted,
	}
}

func toScheduleListResponse(schedules []scheduledomain.Schedule) scheduleListResponse {
	items := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		items = append(items, toScheduleResponse(s))
	}
	return scheduleListResponse{Items: items, Total: len(items)}
}
