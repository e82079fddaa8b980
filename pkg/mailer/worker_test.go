package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/oksasatya/go-ddd-user-accounts/config"
	mailtpl "github.com/oksasatya/go-ddd-user-accounts/pkg/mailer/templates"
)

type recordingSender struct {
	last Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.last = msg
	return s.err
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestProcessRendersTemplates(t *testing.T) {
	cfg := &config.Config{AppName: "Accounts", CompanyName: "Acme"}
	cases := []struct {
		name string
		job  EmailJob
		want []string
	}{
		{
			name: "welcome",
			job: EmailJob{To: "a@x.com", Template: mailtpl.Welcome,
				Data: mailtpl.NewWelcomeData(cfg, "Ann", "a@x.com", "http://localhost/api/auth/verify?token=abc")},
			want: []string{"Ann", "token=abc"},
		},
		{
			name: "email changed",
			job: EmailJob{To: "old@x.com", Template: mailtpl.EmailChanged,
				Data: mailtpl.NewEmailChangedData(cfg, "Ann", "old@x.com", "new@x.com")},
			want: []string{"old@x.com", "new@x.com"},
		},
		{
			name: "password changed",
			job: EmailJob{To: "a@x.com", Template: mailtpl.PasswordChanged,
				Data: mailtpl.NewPasswordChangedData(cfg, "Ann", "a@x.com")},
			want: []string{"a@x.com"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &recordingSender{}
			if err := Process(context.Background(), s, mustJSON(t, tc.job)); err != nil {
				t.Fatalf("process: %v", err)
			}
			m := s.last
			if m.To != tc.job.To || m.Subject == "" || strings.Contains(m.Subject, "\n") {
				t.Fatalf("unexpected envelope to=%q subject=%q", m.To, m.Subject)
			}
			if m.Tag != tc.job.Template {
				t.Fatalf("tag = %q, want %q", m.Tag, tc.job.Template)
			}
			for _, w := range tc.want {
				if !strings.Contains(m.Text, w) || !strings.Contains(m.HTML, w) {
					t.Fatalf("body missing %q:\n%s", w, m.Text)
				}
			}
		})
	}
}

func TestProcessMalformed(t *testing.T) {
	s := &recordingSender{}
	for _, body := range [][]byte{
		[]byte("{"),
		mustJSON(t, EmailJob{Subject: "no recipient"}),
		mustJSON(t, EmailJob{To: "a@x.com", Template: "missing"}),
	} {
		if err := Process(context.Background(), s, body); !errors.Is(err, ErrMalformedJob) {
			t.Fatalf("expected ErrMalformedJob for %s, got %v", body, err)
		}
	}
}

func TestProcessSendFailureIsRetryable(t *testing.T) {
	s := &recordingSender{err: errors.New("mailgun down")}
	err := Process(context.Background(), s, mustJSON(t, EmailJob{To: "a@x.com", Subject: "hi", Text: "hello"}))
	if err == nil || errors.Is(err, ErrMalformedJob) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
}
