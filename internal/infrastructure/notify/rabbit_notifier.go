package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/config"
	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-user-accounts/pkg/mailer/templates"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// VerifyTokenIssuer signs email verification tokens.
type VerifyTokenIssuer interface {
	GenerateVerifyToken(email string) (string, time.Time, error)
}

// MailNotifier turns account events into email jobs for the email worker.
type MailNotifier struct {
	pub    Publisher
	tokens VerifyTokenIssuer
	cfg    *config.Config
}

func NewMailNotifier(pub Publisher, tokens VerifyTokenIssuer, cfg *config.Config) *MailNotifier {
	return &MailNotifier{pub: pub, tokens: tokens, cfg: cfg}
}

func (n *MailNotifier) publish(ctx context.Context, job mailer.EmailJob) error {
	if err := n.pub.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("publish %s mail: %w", job.Template, err)
	}
	return nil
}

func (n *MailNotifier) verifyLink(token string) (string, error) {
	u, err := url.Parse(n.cfg.VerifyEmailURL)
	if err != nil {
		return "", fmt.Errorf("verify url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// UserCreated sends the welcome mail carrying an email verification link.
func (n *MailNotifier) UserCreated(ctx context.Context, u *application.UserResponse) error {
	token, exp, err := n.tokens.GenerateVerifyToken(u.Email)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	link, err := n.verifyLink(token)
	if err != nil {
		return err
	}
	return n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(n.cfg, u.Username, u.Email, link, mailtpl.WithExpiresAt(exp)),
	})
}

// EmailChanged warns the previous address about the change.
func (n *MailNotifier) EmailChanged(ctx context.Context, previousEmail string, u *application.UserResponse) error {
	return n.publish(ctx, mailer.EmailJob{
		To:       previousEmail,
		Template: mailtpl.EmailChanged,
		Data:     mailtpl.NewEmailChangedData(n.cfg, u.Username, previousEmail, u.Email, mailtpl.WithTime(time.Now())),
	})
}

func (n *MailNotifier) PasswordChanged(ctx context.Context, u *application.UserResponse) error {
	return n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.PasswordChanged,
		Data:     mailtpl.NewPasswordChangedData(n.cfg, u.Username, u.Email, mailtpl.WithTime(time.Now())),
	})
}

var _ application.Notifier = (*MailNotifier)(nil)
