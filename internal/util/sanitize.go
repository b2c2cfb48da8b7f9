package util

import (
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// SanitizeForLog removes control characters and newlines from user content before logging.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return controlChars.ReplaceAllString(s, " ")
}

// MaskRecipient hides most of an address so delivery logs do not carry it in
// full. "asha@example.com" becomes "a***@example.com"; values without an @
// keep only their first and last character.
func MaskRecipient(addr string) string {
	addr = SanitizeForLog(strings.TrimSpace(addr))
	if addr == "" {
		return ""
	}
	if at := strings.LastIndex(addr, "@"); at > 0 {
		return addr[:1] + "***" + addr[at:]
	}
	if len(addr) <= 2 {
		return "***"
	}
	return addr[:1] + "***" + addr[len(addr)-1:]
}
