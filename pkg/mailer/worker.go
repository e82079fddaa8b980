package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mailtpl "github.com/oksasatya/go-ddd-user-accounts/pkg/mailer/templates"
)

// ErrMalformedJob marks a queued message that can never be delivered.
var ErrMalformedJob = errors.New("malformed email job")

// Message is a rendered email. Tag names the template it came from.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Tag     string
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Process decodes one queued job, renders its template and sends it.
// Errors wrapping ErrMalformedJob should not be retried.
func Process(ctx context.Context, sender Sender, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrMalformedJob)
	}
	job.EnsureRecipient()

	msg := Message{To: job.To, Subject: job.Subject, Text: job.Text, HTML: job.HTML, Tag: job.Template}
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrMalformedJob, job.Template, err)
		}
		msg.Subject, msg.Text, msg.HTML = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return sender.Send(c, msg)
}
