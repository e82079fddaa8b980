package valueobject

import (
	"errors"
	"testing"
)

func TestNewEmail(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"test@x.com", true},
		{"test123@gmail.com", true},
		{"first.last+tag@example.co.id", true},
		{"test123gmail.com", false},
		{"", false},
		{"@example.com", false},
		{"user@", false},
		{"a b@example.com", false},
	}
	for _, tc := range cases {
		e, err := NewEmail(tc.in)
		if tc.valid {
			if err != nil {
				t.Fatalf("NewEmail(%q) unexpected error: %v", tc.in, err)
			}
			if e.String() != tc.in {
				t.Fatalf("NewEmail(%q) = %q", tc.in, e.String())
			}
			continue
		}
		if !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("NewEmail(%q) expected ErrInvalidFormat, got %v", tc.in, err)
		}
		if !e.IsZero() {
			t.Fatalf("NewEmail(%q) returned non-zero email on error", tc.in)
		}
	}
}

func TestParseUserID(t *testing.T) {
	id := NewUserID()
	parsed, err := ParseUserID(id.String())
	if err != nil {
		t.Fatalf("parse generated id: %v", err)
	}
	if parsed != id {
		t.Fatalf("expected %s, got %s", id, parsed)
	}

	for _, raw := range []string{"", "123", "not-a-uuid", "test@x.com"} {
		if _, err := ParseUserID(raw); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("ParseUserID(%q) expected ErrInvalidFormat, got %v", raw, err)
		}
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("")
	if err != nil || p != ProviderLocal {
		t.Fatalf("empty provider should default to local, got %q err=%v", p, err)
	}
	p, err = NewProvider("github")
	if err != nil || p != ProviderGitHub || !p.IsOAuth() {
		t.Fatalf("expected github oauth provider, got %q err=%v", p, err)
	}
	if ProviderLocal.IsOAuth() {
		t.Fatalf("local must not be an oauth provider")
	}
	if _, err := NewProvider("facebook"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat for unknown provider, got %v", err)
	}
}
