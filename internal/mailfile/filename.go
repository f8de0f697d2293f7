package mailfile

import (
	"strings"
	"time"
)

// GroupInvoiceLabel stands in for the invoice number when a file covers
// several invoices at once.
const GroupInvoiceLabel = "Multiple"

const timestampLayout = "20060102_150405"

// SanitizeFileName makes a CSV-sourced value safe as a file name component.
// Filesystem-reserved characters and whitespace become underscores, runs
// collapse to one, and leading and trailing underscores are stripped. The
// function is idempotent.
func SanitizeFileName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*', ' ', '\t', '\n', '\r':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

// Timestamp formats t for embedding in a file name, second precision.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// BuildFileName expands pattern into a file name without extension.
// Recognized placeholders are {entity}, {group}, {invoice} and {timestamp};
// {group} is an alias for {entity} so single and group patterns can share a
// config value. A zero ts drops the timestamp entirely. Every substituted
// value is sanitized, and trailing underscores left by empty placeholders
// are trimmed.
func BuildFileName(pattern, entity, invoice string, ts time.Time) string {
	stamp := ""
	if !ts.IsZero() {
		stamp = Timestamp(ts)
	}

	out := pattern
	out = strings.ReplaceAll(out, "{entity}", SanitizeFileName(entity))
	out = strings.ReplaceAll(out, "{group}", SanitizeFileName(entity))
	out = strings.ReplaceAll(out, "{invoice}", SanitizeFileName(invoice))
	out = strings.ReplaceAll(out, "{timestamp}", stamp)
	return strings.TrimRight(out, "_")
}
