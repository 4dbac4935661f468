package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/queensauto/booking-funnel/internal/attribution"
	"github.com/queensauto/booking-funnel/internal/availability"
	"github.com/queensauto/booking-funnel/internal/booking"
	"github.com/queensauto/booking-funnel/internal/i18n"
	"github.com/queensauto/booking-funnel/internal/observability/metrics"
	"github.com/queensauto/booking-funnel/internal/session"
	"github.com/queensauto/booking-funnel/internal/submit"
	"github.com/queensauto/booking-funnel/pkg/logging"
)

// FunnelHandler exposes the booking funnel over HTTP: session mount,
// field edits, step transitions, availability and submission.
type FunnelHandler struct {
	store           session.Store
	engine          *availability.Engine
	pipeline        *submit.Pipeline
	metrics         *metrics.FunnelMetrics
	logger          *logging.Logger
	defaultLanguage string
}

// NewFunnelHandler creates a funnel handler.
func NewFunnelHandler(store session.Store, engine *availability.Engine, pipeline *submit.Pipeline, m *metrics.FunnelMetrics, logger *logging.Logger, defaultLanguage string) *FunnelHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultLanguage == "" {
		defaultLanguage = i18n.DefaultLanguage
	}
	return &FunnelHandler{
		store:           store,
		engine:          engine,
		pipeline:        pipeline,
		metrics:         m,
		logger:          logger,
		defaultLanguage: defaultLanguage,
	}
}

type sessionView struct {
	ID       string                             `json:"id"`
	Language string                             `json:"language"`
	State    booking.State                      `json:"state"`
	Step     int                                `json:"step"`
	Draft    booking.Draft                      `json:"draft"`
	Validity map[booking.Field]booking.Validity `json:"validity"`
}

func viewOf(sess *session.Session) sessionView {
	return sessionView{
		ID:       sess.ID,
		Language: sess.Language,
		State:    sess.Machine.State,
		Step:     sess.Machine.Step,
		Draft:    sess.Machine.Draft,
		Validity: sess.Machine.Validity,
	}
}

// CreateSession handles POST /funnel/sessions. Attribution is collected
// exactly once, at mount.
func (h *FunnelHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	// The body is optional; a bare POST mounts with the default language.
	_ = json.NewDecoder(r.Body).Decode(&req)

	lang := req.Language
	if !i18n.Supported(lang) {
		lang = h.defaultLanguage
	}

	sess := session.NewSession(lang)
	sess.Machine.Draft.ApplyAttribution(attribution.Collect(r))

	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return
	}
	h.metrics.ObserveSessionStarted()
	h.logger.Info("funnel session created", "session_id", sess.ID, "language", lang)

	writeJSON(w, http.StatusCreated, viewOf(sess))
}

// GetSession handles GET /funnel/sessions/{sessionID}.
func (h *FunnelHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// UpdateField handles PATCH /funnel/sessions/{sessionID}/fields.
func (h *FunnelHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if err := sess.Machine.SetField(booking.Field(req.Field), req.Value); err != nil {
		if errors.Is(err, booking.ErrLocked) {
			writeError(w, http.StatusConflict, "session_locked")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_field")
		return
	}

	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

type transitionResponse struct {
	State    booking.State     `json:"state"`
	Step     int               `json:"step"`
	Commands []booking.Command `json:"commands,omitempty"`
}

// Advance handles POST /funnel/sessions/{sessionID}/advance.
func (h *FunnelHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	cmds, err := sess.Machine.Advance()
	if err != nil {
		h.metrics.ObserveStepTransition("advance", "rejected")
		if errors.Is(err, booking.ErrStepIncomplete) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":  "step_incomplete",
				"fields": sess.Machine.Incomplete(),
			})
			return
		}
		writeError(w, http.StatusConflict, "invalid_transition")
		return
	}

	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return
	}
	h.metrics.ObserveStepTransition("advance", "accepted")
	writeJSON(w, http.StatusOK, transitionResponse{State: sess.Machine.State, Step: sess.Machine.Step, Commands: cmds})
}

// Back handles POST /funnel/sessions/{sessionID}/back.
func (h *FunnelHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	cmds, err := sess.Machine.Back()
	if err != nil {
		h.metrics.ObserveStepTransition("back", "rejected")
		writeError(w, http.StatusConflict, "invalid_transition")
		return
	}

	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return
	}
	h.metrics.ObserveStepTransition("back", "accepted")
	writeJSON(w, http.StatusOK, transitionResponse{State: sess.Machine.State, Step: sess.Machine.Step, Commands: cmds})
}

// Calendar handles GET /funnel/availability/calendar?year=&month=.
func (h *FunnelHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, errY := strconv.Atoi(r.URL.Query().Get("year"))
	month, errM := strconv.Atoi(r.URL.Query().Get("month"))
	if errY != nil || errM != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid_month")
		return
	}

	grid, err := h.engine.MonthGrid(year, time.Month(month))
	if err != nil {
		if errors.Is(err, availability.ErrMonthInPast) {
			writeError(w, http.StatusBadRequest, "month_in_past")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_month")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"days":  grid,
	})
}

// Slots handles GET /funnel/availability/slots?date=. The "no slots
// remain" condition is distinct from "no date selected" so the client
// can prompt for a different day.
func (h *FunnelHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	slots, err := h.engine.Slots(date)
	switch {
	case errors.Is(err, availability.ErrNoDateSelected):
		writeError(w, http.StatusBadRequest, "no_date_selected")
		return
	case errors.Is(err, availability.ErrNoSlotsRemain):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "no_slots_remain",
			"message": i18n.Lookup(h.language(r), "noSlotsToday", nil),
		})
		return
	case errors.Is(err, availability.ErrDayUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "day_unavailable",
			"message": i18n.Lookup(h.language(r), "dayClosed", nil),
		})
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"slots": slots,
	})
}

// Submit handles POST /funnel/sessions/{sessionID}/submit.
func (h *FunnelHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"event_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.EventID == "" {
		req.EventID = r.Header.Get("X-Analytics-Event-Id")
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if err := sess.Machine.BeginSubmit(); err != nil {
		switch {
		case errors.Is(err, booking.ErrAlreadySubmitting):
			// A repeat attempt while one is in flight is a no-op.
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitting"})
		case errors.Is(err, booking.ErrScheduleIncomplete):
			writeError(w, http.StatusConflict, "schedule_incomplete")
		default:
			writeError(w, http.StatusConflict, "invalid_transition")
		}
		return
	}

	// Persist the submitting state first so a concurrent tab sees the
	// in-flight attempt and backs off.
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
	}

	result := h.pipeline.Submit(r.Context(), sess, req.EventID)

	sess.Machine.CompleteSubmit()
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
	}

	h.logger.Info("booking submitted",
		"session_id", sess.ID,
		"webhook_ok", result.WebhookOK,
	)
	writeJSON(w, http.StatusOK, result)
}

// SetLanguage handles PUT /funnel/sessions/{sessionID}/language.
func (h *FunnelHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !i18n.Supported(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported_language")
		return
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	sess.Language = req.Language
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": sess.Language})
}

// ExitPopup handles POST /funnel/sessions/{sessionID}/exit-popup. Only
// the first call for a session reports show=true.
func (h *FunnelHandler) ExitPopup(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id")
		return
	}

	first, err := h.store.MarkExitPopupShown(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to mark exit popup", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"show": first})
}

func (h *FunnelHandler) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id")
		return nil, false
	}

	sess, err := h.store.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found")
			return nil, false
		}
		h.logger.Error("failed to load session", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return nil, false
	}
	return sess, true
}

func (h *FunnelHandler) language(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); i18n.Supported(lang) {
		return lang
	}
	return h.defaultLanguage
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
