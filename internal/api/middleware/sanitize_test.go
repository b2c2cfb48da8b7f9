package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHeaders(t *testing.T) {
	assert.Nil(t, SanitizeHeaders(nil))

	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("X-Webhook-Secret", "shh")
	h.Set("X-Notify-Recipient", "asha@example.com")
	h.Set("From", "ops@luxestaycations.in")
	h.Set("User-Agent", "curl\n/8.0")
	h.Set("X-Long", strings.Repeat("a", 500))

	out := SanitizeHeaders(h)
	assert.Equal(t, []string{"<redacted>"}, out["Authorization"])
	assert.Equal(t, []string{"<redacted>"}, out["X-Webhook-Secret"])
	assert.Equal(t, []string{"a***@example.com"}, out["X-Notify-Recipient"])
	assert.Equal(t, []string{"o***@luxestaycations.in"}, out["From"])
	assert.Equal(t, []string{"curl /8.0"}, out["User-Agent"])
	assert.Len(t, out["X-Long"][0], maxLoggedValue)
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name, raw, want string
	}{
		{"empty", "", ""},
		{"plain filters kept", "type=payment_receipt&failed=true", "failed=true&type=payment_receipt"},
		{"recipient masked", "recipient=asha%40example.com&limit=5", "limit=5&recipient=a***@example.com"},
		{"address under any key", "cc=ravi@example.in", "cc=r***@example.in"},
		{"phone recipient masked", "to=%2B919800012345", "to=+***5"},
		{"secret redacted", "token=abc123", "token=<redacted>"},
		{"broken", "a=%zz", "<unparseable>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQuery(tt.raw))
		})
	}
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/events/booking_created", SanitizePath("/api/v1/events/booking_created?token=x"))
	assert.Equal(t, "/api/v1/deliveries/by/a***@example.com", SanitizePath("/api/v1/deliveries/by/asha@example.com"))
	assert.Equal(t, "/a b", SanitizePath("/a\nb"))
	assert.Len(t, SanitizePath("/"+strings.Repeat("x", 300)), maxLoggedValue)
}
