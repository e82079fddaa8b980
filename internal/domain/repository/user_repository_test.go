package repository

import "testing"

func TestParseOrder(t *testing.T) {
	cases := []struct {
		in   string
		want *Order
	}{
		{"", nil},
		{"   ", nil},
		{"username-desc", &Order{Field: "username", Direction: "desc"}},
		{"created_at-DESC", &Order{Field: "created_at", Direction: "desc"}},
		{"email-asc", &Order{Field: "email", Direction: "asc"}},
		{"email", &Order{Field: "email", Direction: "asc"}},
		{"email-sideways", &Order{Field: "email", Direction: "asc"}},
	}
	for _, tc := range cases {
		got := ParseOrder(tc.in)
		if tc.want == nil {
			if got != nil {
				t.Fatalf("ParseOrder(%q) expected nil, got %+v", tc.in, got)
			}
			continue
		}
		if got == nil || *got != *tc.want {
			t.Fatalf("ParseOrder(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage(nil, 11, 10, 5)
	if p.Page != 3 || p.TotalPages != 3 || p.Limit != 5 || p.Total != 11 {
		t.Fatalf("unexpected page: %+v", p)
	}

	p = NewPage(nil, 0, 0, 0)
	if p.Limit != DefaultLimit || p.Page != 1 || p.TotalPages != 0 {
		t.Fatalf("unexpected empty page: %+v", p)
	}

	if (Filter{}).PageLimit() != DefaultLimit || (Filter{Limit: 3}).PageLimit() != 3 {
		t.Fatalf("PageLimit should default to %d", DefaultLimit)
	}
}
