package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missingTokens are cell spellings treated as absent values.
var missingTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
}

// IsMissing reports whether a raw cell should be treated as missing.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseNumber parses a cell as a number. It tolerates a trailing percent sign,
// non-breaking spaces and thousands separators, auto-detecting whether ',' or
// '.' is the decimal mark. NaN is rejected; infinities are accepted so callers
// can flag them.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// Decide decimal separator from the last occurrence of each mark.
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		dec = ','
	case cpos >= 0 && dpos < 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
		// "0,5" is a decimal comma; "1,000" is a thousands group.
		dec = ','
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ParseFinite is ParseNumber restricted to finite values.
func ParseFinite(s string) (float64, bool) {
	f, ok := ParseNumber(s)
	if !ok || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"1/2/2006", "2006-01", "02-Jan-2006", "2 Jan 2006", "Jan 2, 2006", "January 2, 2006",
	"Jan 2006", "January 2006", "2006-01-02T15:04:05", time.RFC1123,
}

// ParseTime attempts the known layouts in order.
func ParseTime(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatNumber renders a float the way cells are stored: shortest exact form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var boolTokens = map[string]struct{}{
	"true": {}, "false": {}, "0": {}, "1": {}, "yes": {}, "no": {},
}

// IsBoolToken reports whether s is one of true/false/0/1/yes/no (case-insensitive).
func IsBoolToken(s string) bool {
	_, ok := boolTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
