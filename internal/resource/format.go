package resource

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/render"
	"carservice/internal/validation"
)

// dateLayouts are the shapes dates arrive in: ISO for record fields, RFC 1123 when the
// backend serialises a date object directly.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC1123,
	"Mon, 02 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ISODate normalises a backend date to YYYY-MM-DD for form inputs. Unparseable input is returned as-is.
func ISODate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format(time.DateOnly)
	}
	return s
}

// DisplayDate formats a backend date for tables, "N/A" when missing.
func DisplayDate(s string) string {
	if s == "" {
		return "N/A"
	}
	if t, ok := parseDate(s); ok {
		return t.Format("Jan 2, 2006")
	}
	return s
}

// DisplayCost formats a cost with two decimals and a dollar sign.
func DisplayCost(s string) string {
	if s == "" {
		return "$0.00"
	}
	c, err := validation.ParseCost(s)
	if err != nil {
		return "$" + s
	}
	return "$" + c.StringFixed(2)
}

// Truncate shortens s to n runes followed by "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// firstOf returns the first non-empty attribute among keys.
func firstOf(r model.Record, keys ...string) string {
	for _, k := range keys {
		if v := r.String(k); v != "" {
			return v
		}
	}
	return ""
}

func notes(r model.Record) string {
	return string(render.Markdown(r.String("notes")))
}

func encodeInt(s string) (any, error) {
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return nil, err
	}
	return json.Number(s), nil
}

func encodeYear(s string) (any, error) {
	if err := validation.Year(s); err != nil {
		return nil, err
	}
	return json.Number(strings.TrimSpace(s)), nil
}

func encodeMileage(s string) (any, error) {
	m, err := validation.ParseMileage(s)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func encodeCost(s string) (any, error) {
	c, err := validation.ParseCost(s)
	if err != nil {
		return nil, err
	}
	return json.Number(c.StringFixed(2)), nil
}

func checkMileage(s string) error {
	_, err := validation.ParseMileage(s)
	return err
}

func checkCost(s string) error {
	_, err := validation.ParseCost(s)
	return err
}

func checkID(label string) func(string) error {
	return func(s string) error {
		if n, err := strconv.ParseInt(s, 10, 64); err != nil || n <= 0 {
			return apperrors.Validation(label + " is invalid.")
		}
		return nil
	}
}
