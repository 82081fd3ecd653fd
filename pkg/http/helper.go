package http

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotelbooking/pkg/config"
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int64 {
	return int64((p.Number - 1) * p.Size)
}

// ExtractPage reads ?page= and ?per_page=. Bad or missing values fall back to
// page 1 with the default size.
func ExtractPage(r *http.Request) Page {
	query := r.URL.Query()

	number := 1
	if s := query.Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			number = v
		}
	}

	size := 0
	if s := query.Get("per_page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			size = v
		}
	}
	return Page{Number: number, Size: config.NormalizePaginationLimit(size)}
}

// Pagination is handed to templates for the pager partial.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
	BaseQuery  string
}

func NewPagination(p Page, total int64, baseQuery string) Pagination {
	pages := int(math.Ceil(float64(total) / float64(p.Size)))
	if pages < 1 {
		pages = 1
	}
	return Pagination{Page: p.Number, PerPage: p.Size, Total: total, TotalPages: pages, BaseQuery: baseQuery}
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }
func (p Pagination) Prev() int     { return p.Page - 1 }
func (p Pagination) Next() int     { return p.Page + 1 }

// FormInt returns 0 for empty or malformed input; validation reports it.
func FormInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	return v
}

func FormInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	return v
}

func FormBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// ParseDate parses a YYYY-MM-DD value as midnight UTC. Empty input gives the
// zero time and no error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseMoney converts "149.50" or "149" into cents.
func ParseMoney(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", ""))
	if s == "" {
		return 0, nil
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !digits(whole) || (hasFrac && !digits(frac)) || len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}
	return units*100 + cents, nil
}

// digits reports whether s is a non-empty run of ASCII digits.
func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatMoney is the inverse of ParseMoney, used to refill forms.
func FormatMoney(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
