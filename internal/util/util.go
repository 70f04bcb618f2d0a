package util

import (
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
	SheetLayout = "2006-01-02 15:04:05"
)

// ParseBool accepts the usual English and Russian spellings of "yes".
func ParseBool(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "да", "yes", "true", "1", "y", "on":
		return true
	default:
		return false
	}
}

// Slugify lowercases the title and turns spaces into hyphens.
// Non-latin letters are kept as is.
func Slugify(title string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "-")
}

func SheetTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(SheetLayout)
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
