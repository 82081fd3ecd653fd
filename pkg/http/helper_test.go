package http

import (
	"net/http/httptest"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"149.50", 14950, false},
		{"149.5", 14950, false},
		{"149", 14900, false},
		{"$1,200.00", 120000, false},
		{"", 0, false},
		{"1.234", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
		{"5.", 0, true},
		{"1.-5", 0, true},
		{"1.+5", 0, true},
		{"-0.50", 0, true},
		{"+5", 0, true},
		{"0.-9", 0, true},
		{".50", 0, true},
		{"0.05", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMoney(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMoney(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	if FormatMoney(14950) != "149.50" {
		t.Errorf("FormatMoney(14950) = %s", FormatMoney(14950))
	}
}

func TestExtractPage(t *testing.T) {
	tests := []struct {
		query      string
		wantNumber int
		wantOffset int64
	}{
		{"", 1, 0},
		{"?page=3", 3, 24},
		{"?page=0", 1, 0},
		{"?page=x", 1, 0},
		{"?page=2&per_page=5", 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := ExtractPage(httptest.NewRequest("GET", "/rooms"+tt.query, nil))
			if p.Number != tt.wantNumber || p.Offset() != tt.wantOffset {
				t.Errorf("got page %d offset %d, want %d/%d", p.Number, p.Offset(), tt.wantNumber, tt.wantOffset)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	p := NewPagination(Page{Number: 2, Size: 12}, 25, "status=pending")
	if p.TotalPages != 3 || !p.HasPrev() || !p.HasNext() {
		t.Errorf("unexpected pagination %+v", p)
	}

	empty := NewPagination(Page{Number: 1, Size: 12}, 0, "")
	if empty.TotalPages != 1 || empty.HasNext() {
		t.Errorf("empty result must still have one page, got %+v", empty)
	}
}
