package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex      = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	phoneStripRegex = regexp.MustCompile(`[^\d+]`)
)

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phoneStripRegex.ReplaceAllString(phone, ""))
}

// NormalizePhone strips formatting characters and guarantees a leading +.
func NormalizePhone(phone string) string {
	normalized := phoneStripRegex.ReplaceAllString(strings.TrimSpace(phone), "")
	if normalized == "" {
		return ""
	}
	if !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}
	return normalized
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
