package render

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout     = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006 15:04"
)

func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"money":       Money,
		"date":        formatDate,
		"datetime":    formatDateTime,
		"isodate":     isoDate,
		"nights":      Nights,
		"upper":       strings.ToUpper,
		"title":       titleCase,
		"statusClass": StatusClass,
		"add":         func(a, b int) int { return a + b },
		"seq":         seq,
		"join":        strings.Join,
		"field":       field,
		"pageURL":     PageURL,
		"newKey":      uuid.NewString,
	}
}

// Money formats cents as dollars: 123450 → "$1,234.50".
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + "." + leftPad(cents%100)
}

func leftPad(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// Nights counts the nights between two calendar dates.
func Nights(checkIn, checkOut time.Time) int {
	if !checkOut.After(checkIn) {
		return 0
	}
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

// StatusClass maps booking and room statuses to badge CSS classes.
func StatusClass(status string) string {
	switch status {
	case "confirmed", "available":
		return "badge-success"
	case "pending":
		return "badge-warning"
	case "rejected", "cancelled", "maintenance":
		return "badge-danger"
	case "occupied":
		return "badge-info"
	default:
		return "badge-secondary"
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func seq(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// PageURL builds a pager link from an already encoded query.
func PageURL(baseQuery string, page int) template.URL {
	if baseQuery == "" {
		return template.URL("?page=" + strconv.Itoa(page))
	}
	return template.URL("?" + baseQuery + "&page=" + strconv.Itoa(page))
}

func field(errs map[string]string, name string) string {
	if errs == nil {
		return ""
	}
	return errs[name]
}
