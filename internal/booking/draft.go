package booking

// Field names the funnel accepts. The string values are the wire names
// used by the web client and echoed verbatim in the lead payload.
type Field string

const (
	FieldSymptom      Field = "symptom"
	FieldFirstName    Field = "first-name"
	FieldLastName     Field = "last-name"
	FieldEmail        Field = "email"
	FieldMobileNumber Field = "mobile-number"
	FieldCarYear      Field = "car-year"
	FieldCarMake      Field = "car-make"
	FieldCarModel     Field = "car-model"
	FieldDate         Field = "date"
	FieldTime         Field = "time"
)

// Draft is the in-progress booking record for one funnel session.
// Attribution fields are populated once at mount and never overwrite
// values already present.
type Draft struct {
	Symptom      string `json:"symptom,omitempty"`
	FirstName    string `json:"first-name,omitempty"`
	LastName     string `json:"last-name,omitempty"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobile-number,omitempty"`
	CarYear      string `json:"car-year,omitempty"`
	CarMake      string `json:"car-make,omitempty"`
	CarModel     string `json:"car-model,omitempty"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	GAClientID  string `json:"ga_client_id,omitempty"`
	GCLID       string `json:"gclid,omitempty"`
	FBC         string `json:"fbc,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// Get returns the current value of a user-editable field. Unknown
// fields read as empty.
func (d *Draft) Get(f Field) string {
	switch f {
	case FieldSymptom:
		return d.Symptom
	case FieldFirstName:
		return d.FirstName
	case FieldLastName:
		return d.LastName
	case FieldEmail:
		return d.Email
	case FieldMobileNumber:
		return d.MobileNumber
	case FieldCarYear:
		return d.CarYear
	case FieldCarMake:
		return d.CarMake
	case FieldCarModel:
		return d.CarModel
	case FieldDate:
		return d.Date
	case FieldTime:
		return d.Time
	}
	return ""
}

// set assigns a user-editable field. Unknown fields are ignored; the
// caller decides whether that is worth reporting.
func (d *Draft) set(f Field, value string) bool {
	switch f {
	case FieldSymptom:
		d.Symptom = value
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldEmail:
		d.Email = value
	case FieldMobileNumber:
		d.MobileNumber = value
	case FieldCarYear:
		d.CarYear = value
	case FieldCarMake:
		d.CarMake = value
	case FieldCarModel:
		d.CarModel = value
	case FieldDate:
		d.Date = value
	case FieldTime:
		d.Time = value
	default:
		return false
	}
	return true
}

// ApplyAttribution merges a sparse attribution map into the draft
// without overwriting fields that already hold a value.
func (d *Draft) ApplyAttribution(attrs map[string]string) {
	merge := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v, ok := attrs[key]; ok && v != "" {
			*dst = v
		}
	}
	merge(&d.UTMSource, "utm_source")
	merge(&d.UTMMedium, "utm_medium")
	merge(&d.UTMCampaign, "utm_campaign")
	merge(&d.UTMTerm, "utm_term")
	merge(&d.UTMContent, "utm_content")
	merge(&d.GAClientID, "ga_client_id")
	merge(&d.GCLID, "gclid")
	merge(&d.FBC, "fbc")
	merge(&d.Referrer, "referrer")
}
