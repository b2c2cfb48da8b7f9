package middleware

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Top-g99/luxe-staycations-sub000/internal/util"
)

// maxLoggedValue bounds header values, query values and paths written to logs.
const maxLoggedValue = 200

// secretKeys are header or query names whose values never reach the logs.
var secretKeys = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"x-webhook-secret":    {},
	"api_key":             {},
	"token":               {},
	"secret":              {},
}

// recipientKeys carry delivery addresses and are masked like the delivery log does.
var recipientKeys = map[string]struct{}{
	"recipient":          {},
	"email":              {},
	"to":                 {},
	"x-notify-recipient": {},
}

func sanitizeValue(key, v string) string {
	key = strings.ToLower(key)
	if _, ok := secretKeys[key]; ok {
		return "<redacted>"
	}
	if _, ok := recipientKeys[key]; ok || strings.Contains(v, "@") {
		return util.MaskRecipient(v)
	}
	v = util.SanitizeForLog(v)
	if len(v) > maxLoggedValue {
		v = v[:maxLoggedValue]
	}
	return v
}

// SanitizeHeaders returns headers safe to log: secrets are redacted and
// anything carrying an address is masked.
func SanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			clean = append(clean, sanitizeValue(k, v))
		}
		out[k] = clean
	}
	return out
}

// SanitizeQuery renders a raw query string for logs with keys sorted and
// values masked. Unparseable queries are dropped.
func SanitizeQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "<unparseable>"
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(util.SanitizeForLog(k))
			b.WriteByte('=')
			b.WriteString(sanitizeValue(k, v))
		}
	}
	return b.String()
}

// SanitizePath strips the query string, masks path segments holding an
// address and truncates the result.
func SanitizePath(p string) string {
	if i := strings.Index(p, "?"); i != -1 {
		p = p[:i]
	}
	if strings.Contains(p, "@") {
		segments := strings.Split(p, "/")
		for i, s := range segments {
			if strings.Contains(s, "@") {
				segments[i] = util.MaskRecipient(s)
			}
		}
		p = strings.Join(segments, "/")
	}
	p = util.SanitizeForLog(p)
	if len(p) > maxLoggedValue {
		p = p[:maxLoggedValue]
	}
	return p
}
