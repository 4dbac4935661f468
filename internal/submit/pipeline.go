package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/queensauto/booking-funnel/internal/observability/metrics"
	"github.com/queensauto/booking-funnel/internal/session"
	"github.com/queensauto/booking-funnel/pkg/logging"
)

// leadValueUSD is the value reported on the generate_lead analytics
// record, matching the best offer on the page.
const leadValueUSD = 45

// Config holds pipeline dependencies and fixed endpoints.
type Config struct {
	WebhookURL      string
	WebhookTimeout  time.Duration
	ConfirmationURL string
	CountryCode     string
	PageVariant     string
	Store           session.Store
	Logger          *logging.Logger
	Metrics         *metrics.FunnelMetrics
	HTTPClient      *http.Client
}

// Pipeline assembles the lead payload, notifies the webhook on a
// best-effort basis and always produces the confirmation redirect.
type Pipeline struct {
	client          *http.Client
	webhookURL      string
	webhookTimeout  time.Duration
	confirmationURL string
	countryCode     string
	pageVariant     string
	store           session.Store
	logger          *logging.Logger
	metrics         *metrics.FunnelMetrics
}

// Result is the outcome of one submission attempt. RedirectURL is
// always populated.
type Result struct {
	RedirectURL string `json:"redirect_url"`
	WebhookOK   bool   `json:"-"`
}

// New creates a submission pipeline.
func New(cfg Config) *Pipeline {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Pipeline{
		client:          client,
		webhookURL:      cfg.WebhookURL,
		webhookTimeout:  timeout,
		confirmationURL: cfg.ConfirmationURL,
		countryCode:     cfg.CountryCode,
		pageVariant:     cfg.PageVariant,
		store:           cfg.Store,
		logger:          logger,
		metrics:         cfg.Metrics,
	}
}

// Submit runs the pipeline for a session that has entered the
// submitting state. The redirect URL is built in a finalizer that runs
// on every exit path, so a webhook failure (or panic) can never strand
// the visitor without a confirmation.
func (p *Pipeline) Submit(ctx context.Context, sess *session.Session, analyticsEventID string) (result *Result) {
	payload := p.Assemble(sess, analyticsEventID)
	result = &Result{}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("submit: recovered during lead notification", "panic", fmt.Sprint(r))
		}
		result.RedirectURL = p.redirectURL(sess.ID, payload)
	}()

	p.logGenerateLead(payload)
	result.WebhookOK = p.notify(ctx, sess.ID, payload)
	return result
}

// Assemble builds the outbound payload. A non-empty analytics event id
// from the page's event queue is reused verbatim; otherwise a fresh
// one is generated.
func (p *Pipeline) Assemble(sess *session.Session, analyticsEventID string) *Payload {
	eventID := analyticsEventID
	if eventID == "" {
		eventID = "gen_" + uuid.NewString()
	}
	draft := sess.Machine.Draft
	return &Payload{
		Draft:        draft,
		EventID:      eventID,
		Phone:        NormalizePhone(p.countryCode, draft.MobileNumber),
		PageVariant:  p.pageVariant,
		UserLanguage: sess.Language,
	}
}

// NormalizePhone prepends the country calling code to the digits-only
// mobile number.
func NormalizePhone(countryCode, mobile string) string {
	digits := digitsOnly(mobile)
	if digits == "" {
		return ""
	}
	return "+" + countryCode + digits
}

func digitsOnly(v string) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] >= '0' && v[i] <= '9' {
			out = append(out, v[i])
		}
	}
	return string(out)
}

// notify posts the payload to the lead webhook. Failures are logged and
// metered, never propagated: losing the notification side-channel is
// acceptable, losing the visitor's confirmation is not.
func (p *Pipeline) notify(ctx context.Context, sessionID string, payload *Payload) bool {
	if p.webhookURL == "" {
		p.logger.Debug("submit: lead webhook not configured, skipping")
		p.metrics.ObserveSubmission("skipped")
		return false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("submit: failed to marshal lead payload", "error", err)
		p.metrics.ObserveSubmission("failed")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("submit: failed to build webhook request", "error", err)
		p.metrics.ObserveSubmission("failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	p.metrics.ObserveWebhookLatency(time.Since(start).Seconds())
	if err != nil {
		p.logger.Error("submit: lead webhook failed", "error", err, "session_id", sessionID)
		p.metrics.ObserveSubmission("failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Error("submit: lead webhook returned non-success status",
			"status", resp.StatusCode, "session_id", sessionID)
		p.metrics.ObserveSubmission("failed")
		return false
	}
	p.metrics.ObserveSubmission("ok")

	// A response body without the expected fields just means no bonus
	// data is available.
	var bonus session.BonusData
	if err := json.NewDecoder(resp.Body).Decode(&bonus); err != nil {
		p.logger.Debug("submit: webhook response carried no bonus data", "error", err)
		return true
	}
	if bonus.AudioURL != "" || bonus.CouponCode != "" {
		if err := p.store.SaveBonus(ctx, sessionID, bonus); err != nil {
			p.logger.Error("submit: failed to persist bonus data", "error", err)
		}
	}
	return true
}

// redirectURL builds the confirmation URL with every non-empty payload
// field as a percent-encoded query parameter, renamed for the
// confirmation page, plus the session id for the one-shot bonus read.
func (p *Pipeline) redirectURL(sessionID string, payload *Payload) string {
	u, err := url.Parse(p.confirmationURL)
	if err != nil {
		u = &url.URL{Path: "/confirmation"}
	}
	q := u.Query()
	for k, v := range payload.fields() {
		if v != "" {
			q.Set(renameKey(k), v)
		}
	}
	q.Set("sid", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}

// logGenerateLead mirrors the analytics event the original page pushed
// on submit.
func (p *Pipeline) logGenerateLead(payload *Payload) {
	p.logger.Info("generate_lead",
		"currency", "USD",
		"value", leadValueUSD,
		"lead_type", "auto_repair_booking",
		"email", payload.Email,
		"phone_number", payload.Phone,
		"first_name", payload.FirstName,
		"last_name", payload.LastName,
		"vehicle", fmt.Sprintf("%s %s %s", payload.CarYear, payload.CarMake, payload.CarModel),
	)
}
