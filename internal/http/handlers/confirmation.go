package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/queensauto/booking-funnel/internal/i18n"
	"github.com/queensauto/booking-funnel/internal/session"
	"github.com/queensauto/booking-funnel/pkg/logging"
)

// ConfirmationHandler decodes the redirect query string back into a
// lead view and reads any bonus data, once, from the session store.
type ConfirmationHandler struct {
	store  session.Store
	logger *logging.Logger
}

// NewConfirmationHandler creates a confirmation handler.
func NewConfirmationHandler(store session.Store, logger *logging.Logger) *ConfirmationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmationHandler{store: store, logger: logger}
}

type leadView struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	PhoneRaw     string `json:"phone_raw,omitempty"`
	CarYear      string `json:"carYear,omitempty"`
	CarMake      string `json:"carMake,omitempty"`
	CarModel     string `json:"carModel,omitempty"`
	Symptom      string `json:"symptom,omitempty"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	EventID      string `json:"event_id,omitempty"`
	PageVariant  string `json:"pageVariant,omitempty"`
	UserLanguage string `json:"userLanguage,omitempty"`
}

type confirmationResponse struct {
	Greeting   string             `json:"greeting"`
	Summary    string             `json:"summary,omitempty"`
	Lead       leadView           `json:"lead"`
	Bonus      *session.BonusData `json:"bonus,omitempty"`
	CouponNote string             `json:"coupon_note,omitempty"`
}

// Show handles GET /confirmation. The page is reload-safe: everything
// it renders comes from the query string, except the bonus data which
// is consumed from the store on first view only.
func (h *ConfirmationHandler) Show(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lead := decodeLead(q)

	lang := q.Get("userLanguage")
	if !i18n.Supported(lang) {
		lang = i18n.DefaultLanguage
	}

	resp := confirmationResponse{
		Greeting: i18n.Lookup(lang, "confirmationTitle", map[string]string{"name": lead.FirstName}),
		Lead:     lead,
	}
	if lead.Date != "" && lead.Time != "" {
		resp.Summary = i18n.Lookup(lang, "confirmationBody", map[string]string{
			"vehicle": vehicleName(lead),
			"date":    lead.Date,
			"time":    lead.Time,
		})
	}

	if sid := q.Get("sid"); sid != "" {
		bonus, err := h.store.TakeBonus(r.Context(), sid)
		if err != nil {
			h.logger.Error("failed to read bonus data", "error", err, "session_id", sid)
		} else if bonus != nil {
			resp.Bonus = bonus
			if bonus.CouponCode != "" {
				resp.CouponNote = i18n.Lookup(lang, "couponNote", map[string]string{"code": bonus.CouponCode})
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func decodeLead(q url.Values) leadView {
	return leadView{
		FirstName:    q.Get("first_name"),
		LastName:     q.Get("last_name"),
		Email:        q.Get("email"),
		Phone:        q.Get("phone"),
		PhoneRaw:     q.Get("phone_raw"),
		CarYear:      q.Get("carYear"),
		CarMake:      q.Get("carMake"),
		CarModel:     q.Get("carModel"),
		Symptom:      q.Get("symptom"),
		Date:         q.Get("date"),
		Time:         q.Get("time"),
		EventID:      q.Get("event_id"),
		PageVariant:  q.Get("pageVariant"),
		UserLanguage: q.Get("userLanguage"),
	}
}

func vehicleName(lead leadView) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{lead.CarYear, lead.CarMake, lead.CarModel} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
