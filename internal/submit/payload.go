package submit

import (
	"encoding/json"

	"github.com/queensauto/booking-funnel/internal/booking"
)

// Payload is the outbound lead body: the full draft plus the event
// identifier, normalized phone, page-variant tag and visitor language.
// The JSON field names are the webhook's wire contract.
type Payload struct {
	booking.Draft
	EventID      string `json:"event_id"`
	Phone        string `json:"phone"`
	PageVariant  string `json:"pageVariant"`
	UserLanguage string `json:"userLanguage"`
}

// redirectKeyRenames maps payload keys to the names the confirmation
// page expects. These must be preserved bit-for-bit; the receiver
// parses them by name.
var redirectKeyRenames = map[string]string{
	"first-name":    "first_name",
	"last-name":     "last_name",
	"mobile-number": "phone_raw",
	"car-year":      "carYear",
	"car-make":      "carMake",
	"car-model":     "carModel",
}

// fields flattens the payload into its wire key/value pairs. Every
// field is a string, so a JSON round trip is exact.
func (p *Payload) fields() map[string]string {
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	m := make(map[string]string)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func renameKey(k string) string {
	if renamed, ok := redirectKeyRenames[k]; ok {
		return renamed
	}
	return k
}
