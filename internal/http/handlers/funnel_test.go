package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/queensauto/booking-funnel/internal/availability"
	"github.com/queensauto/booking-funnel/internal/booking"
	"github.com/queensauto/booking-funnel/internal/session"
	"github.com/queensauto/booking-funnel/internal/submit"
)

// Tuesday, September 15th 2026, 09:00 in the shop's timezone.
func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	at := time.Date(2026, time.September, 15, 9, 0, 0, 0, loc)
	return func() time.Time { return at }
}

type testEnv struct {
	router chi.Router
	store  session.Store
}

func newTestEnv(t *testing.T, webhookURL string) *testEnv {
	t.Helper()

	store := session.NewMemoryStore(time.Hour)
	engine := availability.New("America/Chicago", time.Sunday, 8, 16, 30*time.Minute, time.Hour,
		availability.WithNow(fixedClock(t)))
	pipeline := submit.New(submit.Config{
		WebhookURL:      webhookURL,
		ConfirmationURL: "https://shop.example/thank-you",
		CountryCode:     "1",
		PageVariant:     "general_repair_001",
		Store:           store,
	})

	h := NewFunnelHandler(store, engine, pipeline, nil, nil, "en")
	c := NewConfirmationHandler(store, nil)

	r := chi.NewRouter()
	r.Route("/funnel", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Patch("/fields", h.UpdateField)
			r.Post("/advance", h.Advance)
			r.Post("/back", h.Back)
			r.Post("/submit", h.Submit)
			r.Put("/language", h.SetLanguage)
			r.Post("/exit-popup", h.ExitPopup)
		})
		r.Get("/availability/calendar", h.Calendar)
		r.Get("/availability/slots", h.Slots)
	})
	r.Get("/confirmation", c.Show)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/funnel/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", w.Code)
	}
	var view sessionView
	decodeBody(t, w, &view)
	if view.ID == "" {
		t.Fatal("created session has no id")
	}
	return view.ID
}

func (e *testEnv) setField(t *testing.T, id string, field booking.Field, value string) {
	t.Helper()
	w := e.do(t, http.MethodPatch, "/funnel/sessions/"+id+"/fields", map[string]string{
		"field": string(field),
		"value": value,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set %s status = %d: %s", field, w.Code, w.Body.String())
	}
}

func (e *testEnv) fillStep1(t *testing.T, id string) {
	t.Helper()
	e.setField(t, id, booking.FieldFirstName, "Jo")
	e.setField(t, id, booking.FieldLastName, "Smith")
	e.setField(t, id, booking.FieldEmail, "jo@x.com")
	e.setField(t, id, booking.FieldMobileNumber, "(224) 555-0100")
	e.setField(t, id, booking.FieldCarYear, "2020")
	e.setField(t, id, booking.FieldCarMake, "Ford")
	e.setField(t, id, booking.FieldCarModel, "F-150")
}

func TestCreateSession_CollectsAttribution(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/funnel/sessions?utm_source=google&utm_campaign=fall", nil)
	req.AddCookie(&http.Cookie{Name: "_ga", Value: "GA1.2.111.222"})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	var view sessionView
	decodeBody(t, w, &view)
	if view.Draft.UTMSource != "google" {
		t.Errorf("utm_source = %q", view.Draft.UTMSource)
	}
	if view.Draft.GAClientID != "111.222" {
		t.Errorf("ga_client_id = %q", view.Draft.GAClientID)
	}
	if view.State != booking.StateStep1 {
		t.Errorf("state = %q, want step1", view.State)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, http.MethodGet, "/funnel/sessions/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateField_ValidityPersists(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)
	env.setField(t, id, booking.FieldEmail, "jo@x")

	w := env.do(t, http.MethodGet, "/funnel/sessions/"+id, nil)
	var view sessionView
	decodeBody(t, w, &view)
	if view.Validity[booking.FieldEmail] != booking.ValidityInvalid {
		t.Errorf("email validity = %v, want invalid", view.Validity[booking.FieldEmail])
	}
	if view.Draft.Email != "jo@x" {
		t.Errorf("draft email = %q", view.Draft.Email)
	}
}

func TestAdvance_IncompleteReportsFields(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)
	env.setField(t, id, booking.FieldFirstName, "Jo")

	w := env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/advance", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var resp struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	decodeBody(t, w, &resp)
	if resp.Error != "step_incomplete" {
		t.Errorf("error = %q", resp.Error)
	}
	if len(resp.Fields) == 0 {
		t.Error("expected incomplete fields to be reported")
	}
}

func TestAdvance_CompleteStepEmitsScroll(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)
	env.fillStep1(t, id)

	w := env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/advance", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp transitionResponse
	decodeBody(t, w, &resp)
	if resp.Step != 2 {
		t.Errorf("step = %d, want 2", resp.Step)
	}
	if len(resp.Commands) != 1 || resp.Commands[0].Kind != booking.CommandScroll {
		t.Errorf("commands = %+v, want one scroll command", resp.Commands)
	}
}

func TestBack_ReturnsToStep1(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)
	env.fillStep1(t, id)
	env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/advance", nil)

	w := env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/back", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp transitionResponse
	decodeBody(t, w, &resp)
	if resp.Step != 1 {
		t.Errorf("step = %d, want 1", resp.Step)
	}
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/funnel/availability/calendar?year=2026&month=9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Days []availability.Day `json:"days"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Days) != 30 {
		t.Errorf("days = %d, want 30", len(resp.Days))
	}

	w = env.do(t, http.MethodGet, "/funnel/availability/calendar?year=2026&month=8", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("past month status = %d, want 400", w.Code)
	}

	w = env.do(t, http.MethodGet, "/funnel/availability/calendar?year=2026&month=13", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("month 13 status = %d, want 400", w.Code)
	}
}

func TestSlots(t *testing.T) {
	env := newTestEnv(t, "")

	// A full future day exposes the complete ladder.
	w := env.do(t, http.MethodGet, "/funnel/availability/slots?date=2026-09-16", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Slots []string `json:"slots"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Slots) != 17 {
		t.Errorf("slots = %d, want 17", len(resp.Slots))
	}

	w = env.do(t, http.MethodGet, "/funnel/availability/slots", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing date status = %d, want 400", w.Code)
	}

	// September 20th 2026 is a Sunday.
	w = env.do(t, http.MethodGet, "/funnel/availability/slots?date=2026-09-20", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("closed day status = %d, want 409", w.Code)
	}
}

func TestSubmit_FullFlow(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"couponCode":"SAVE45"}`))
	}))
	defer hook.Close()

	env := newTestEnv(t, hook.URL)
	id := env.createSession(t)
	env.fillStep1(t, id)
	env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/advance", nil)
	env.setField(t, id, booking.FieldDate, "2026-09-16")
	env.setField(t, id, booking.FieldTime, "9:30 AM")

	w := env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/submit", map[string]string{"event_id": "evt_7"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		RedirectURL string `json:"redirect_url"`
	}
	decodeBody(t, w, &resp)
	if resp.RedirectURL == "" {
		t.Fatal("expected a redirect url")
	}

	// The session ends up redirected, so another submit is rejected.
	w = env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/submit", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("resubmit status = %d, want 409", w.Code)
	}
}

func TestSubmit_WithoutScheduleRejected(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)
	env.fillStep1(t, id)
	env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/advance", nil)

	w := env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/submit", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &resp)
	if resp.Error != "schedule_incomplete" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSubmit_InFlightIsNoOp(t *testing.T) {
	env := newTestEnv(t, "")

	sess := session.NewSession("en")
	m := sess.Machine
	m.SetField(booking.FieldFirstName, "Jo")
	m.SetField(booking.FieldLastName, "Smith")
	m.SetField(booking.FieldEmail, "jo@x.com")
	m.SetField(booking.FieldMobileNumber, "2245550100")
	m.SetField(booking.FieldCarYear, "2020")
	m.SetField(booking.FieldCarMake, "Ford")
	m.SetField(booking.FieldCarModel, "F-150")
	if _, err := m.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	m.SetField(booking.FieldDate, "2026-09-16")
	m.SetField(booking.FieldTime, "9:30 AM")
	if err := m.BeginSubmit(); err != nil {
		t.Fatalf("begin submit: %v", err)
	}
	if err := env.store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	w := env.do(t, http.MethodPost, "/funnel/sessions/"+sess.ID+"/submit", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	decodeBody(t, w, &resp)
	if resp.Status != "submitting" {
		t.Errorf("status field = %q", resp.Status)
	}
}

func TestSetLanguage(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	w := env.do(t, http.MethodPut, "/funnel/sessions/"+id+"/language", map[string]string{"language": "es"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/funnel/sessions/"+id+"/language", map[string]string{"language": "fr"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported language status = %d, want 400", w.Code)
	}

	w = env.do(t, http.MethodGet, "/funnel/sessions/"+id, nil)
	var view sessionView
	decodeBody(t, w, &view)
	if view.Language != "es" {
		t.Errorf("language = %q, want es", view.Language)
	}
}

func TestExitPopup_OneShot(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	var resp struct {
		Show bool `json:"show"`
	}

	w := env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/exit-popup", nil)
	decodeBody(t, w, &resp)
	if !resp.Show {
		t.Error("first exit-popup call should show")
	}

	w = env.do(t, http.MethodPost, "/funnel/sessions/"+id+"/exit-popup", nil)
	decodeBody(t, w, &resp)
	if resp.Show {
		t.Error("second exit-popup call should not show")
	}
}
