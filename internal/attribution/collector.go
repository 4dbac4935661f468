package attribution

import (
	"net/http"
	"strings"
)

// utmParams are the query parameters captured verbatim.
var utmParams = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
}

// cookieKeys maps attribution keys to the cookie each one is read from.
var cookieKeys = map[string]string{
	"gclid": "_gcl_au",
	"fbc":   "_fbc",
}

const gaCookie = "_ga"

// Collect reads marketing identifiers from the mount request: URL query
// parameters, the analytics cookies and the referrer. The result is
// sparse; keys whose source value is absent or empty are omitted. The
// read has no side effects and no error conditions.
func Collect(r *http.Request) map[string]string {
	attrs := make(map[string]string)

	query := r.URL.Query()
	for _, p := range utmParams {
		if v := query.Get(p); v != "" {
			attrs[p] = v
		}
	}

	for key, name := range cookieKeys {
		if v := cookieValue(r, name); v != "" {
			attrs[key] = v
		}
	}

	if id := GAClientID(cookieValue(r, gaCookie)); id != "" {
		attrs["ga_client_id"] = id
	}

	if ref := r.Header.Get("Referer"); ref != "" {
		attrs["referrer"] = ref
	}

	return attrs
}

// GAClientID extracts the client id from a _ga cookie value: the value
// is dot-delimited and the id is everything after the first two
// segments. "GA1.2.111.222" yields "111.222". An absent or malformed
// value yields "" and the caller omits the key.
func GAClientID(cookie string) string {
	if cookie == "" {
		return ""
	}
	parts := strings.Split(cookie, ".")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[2:], ".")
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
