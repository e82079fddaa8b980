package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmpl "html/template"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var files embed.FS

// Template names. Each has <name>.subject.tmpl, <name>.text.tmpl and
// <name>.html.tmpl next to this file.
const (
	Welcome         = "welcome"
	EmailChanged    = "email_changed"
	PasswordChanged = "password_changed"
)

var names = []string{Welcome, EmailChanged, PasswordChanged}

// ErrUnknownTemplate is returned by Render for names outside the catalog.
var ErrUnknownTemplate = errors.New("unknown email template")

// EmailData is the field set every account template can reference.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`

	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	LogoURL    string `json:"LogoURL"`
	SupportURL string `json:"SupportURL"`
	PrivacyURL string `json:"PrivacyURL"`
	VerifyURL  string `json:"VerifyURL"`

	PreviousEmail string `json:"PreviousEmail"`
	ExpiresAtText string `json:"ExpiresAtText"`
	Time          string `json:"Time"`
}

// toMap flattens d for EmailJob.Data, which travels as JSON.
func toMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn backs {{ .Value | default "Fallback" }}. Only missing values and
// blank strings fall back.
func defaultFn(fallback, value any) any {
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return fallback
	}
	return value
}

func funcs() map[string]any {
	return map[string]any{
		"now":     func() time.Time { return time.Now().UTC() },
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

type parsed struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	loadOnce sync.Once
	catalog  map[string]parsed
	loadErr  error
)

func load() (map[string]parsed, error) {
	loadOnce.Do(func() {
		out := make(map[string]parsed, len(names))
		for _, n := range names {
			var p parsed
			var err error
			if p.subject, err = texttpl.New(n).Funcs(funcs()).ParseFS(files, n+".subject.tmpl"); err != nil {
				loadErr = fmt.Errorf("parse %s subject: %w", n, err)
				return
			}
			if p.text, err = texttpl.New(n).Funcs(funcs()).ParseFS(files, n+".text.tmpl"); err != nil {
				loadErr = fmt.Errorf("parse %s text: %w", n, err)
				return
			}
			if p.html, err = htmpl.New(n).Funcs(funcs()).ParseFS(files, n+".html.tmpl"); err != nil {
				loadErr = fmt.Errorf("parse %s html: %w", n, err)
				return
			}
			out[n] = p
		}
		catalog = out
	})
	return catalog, loadErr
}

// Render produces the subject, plain text and HTML bodies for name. The
// subject is trimmed to a single line.
func Render(name string, data any) (subject, text, html string, err error) {
	cat, err := load()
	if err != nil {
		return "", "", "", err
	}
	p, ok := cat[name]
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer
	if err = p.subject.ExecuteTemplate(&buf, name+".subject.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	subject = strings.Join(strings.Fields(buf.String()), " ")

	buf.Reset()
	if err = p.text.ExecuteTemplate(&buf, name+".text.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	text = buf.String()

	buf.Reset()
	if err = p.html.ExecuteTemplate(&buf, name+".html.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	return subject, text, buf.String(), nil
}
