package templates

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/config"
)

func TestRenderAllTemplates(t *testing.T) {
	cfg := &config.Config{AppName: "Accounts", PrivacyURL: "https://x.io/privacy"}
	for _, name := range names {
		data := NewPasswordChangedData(cfg, "", "a@x.com", WithTime(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))
		subject, text, html, err := Render(name, data)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if subject == "" || strings.Contains(subject, "\n") {
			t.Fatalf("%s: subject %q", name, subject)
		}
		if text == "" || !strings.Contains(html, "https://x.io/privacy") {
			t.Fatalf("%s: bodies not rendered", name)
		}
		if !strings.Contains(text, "there") {
			t.Fatalf("%s: blank name should fall back:\n%s", name, text)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, _, err := Render("reset_password", nil); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestEmailChangedAddressesPreviousOwner(t *testing.T) {
	d := NewEmailChangedData(&config.Config{}, "Ann", "old@x.com", "new@x.com")
	if d["RecipientEmail"] != "old@x.com" || d["Email"] != "new@x.com" || d["PreviousEmail"] != "old@x.com" {
		t.Fatalf("unexpected data %v", d)
	}
}

func TestDefaultFn(t *testing.T) {
	if defaultFn("x", nil) != "x" || defaultFn("x", "  ") != "x" || defaultFn("x", "y") != "y" || defaultFn("x", 0) != 0 {
		t.Fatalf("default fallback rules broken")
	}
}
