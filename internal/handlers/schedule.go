package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workfree/search-briefing/internal/manager"
	"github.com/workfree/search-briefing/internal/models"
)

// ScheduleHandler handles briefing schedule CRUD, pause and resume.
type ScheduleHandler struct {
	Manager *manager.Manager
}

type registerInput struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	Keywords   []string `json:"keywords"`
	Time       string   `json:"time"` // "HH:MM"
	Weekdays   []int    `json:"weekdays"`
	MaxResults int      `json:"max_results"`
	Providers  []string `json:"providers"`
}

// Register creates or replaces the schedule for a user.
// Body: {"user_id": "...", "email": "...", "keywords": [...], "time": "09:00", "weekdays": [0,2,4], "max_results": 5, "providers": ["google"]}.
func (h *ScheduleHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	hour, minute, err := manager.ParseTimeOfDay(input.Time)
	if err != nil {
		JSONValidationError(w, "validation failed", map[string]string{"time": err.Error()}, http.StatusBadRequest)
		return
	}

	s := &models.Schedule{
		UserID:     input.UserID,
		Recipient:  input.Email,
		Keywords:   input.Keywords,
		Hour:       hour,
		Minute:     minute,
		Weekdays:   input.Weekdays,
		MaxResults: input.MaxResults,
		Providers:  input.Providers,
	}

	stored, next, err := h.Manager.Register(r.Context(), s)
	if err != nil {
		var verr *manager.ValidationError
		if errors.As(err, &verr) {
			JSONValidationError(w, "validation failed", verr.Fields, http.StatusBadRequest)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   stored.JobID(),
		"user_id":  stored.UserID,
		"email":    stored.Recipient,
		"keywords": stored.Keywords,
		"time":     stored.TimeOfDay(),
		"weekdays": stored.Weekdays,
		"next_run": next.Format(time.RFC3339),
	})
}

// Get returns the schedule descriptor for a user.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	d, err := h.Manager.Get(r.Context(), userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if d == nil {
		JSONNotFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}

// Delete removes the schedule and its trigger.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	existed, err := h.Manager.Remove(r.Context(), userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !existed {
		JSONNotFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"user_id": userID, "removed": true})
}

// Pause suspends firing without losing the schedule.
func (h *ScheduleHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, true)
}

// Resume restores firing at the next nominal occurrence.
func (h *ScheduleHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, false)
}

func (h *ScheduleHandler) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	userID := chi.URLParam(r, "user_id")

	var existed bool
	var err error
	if paused {
		existed, err = h.Manager.Pause(r.Context(), userID)
	} else {
		existed, err = h.Manager.Resume(r.Context(), userID)
	}
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !existed {
		JSONNotFound(w)
		return
	}

	status := "active"
	if paused {
		status = "paused"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"user_id": userID, "status": status})
}

// List returns every registered schedule's descriptor. Operator-only; the
// router gates this behind the admin token.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Manager.List(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"items": list,
		"total": len(list),
	})
}
