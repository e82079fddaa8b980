package templates

import (
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/config"
)

const timeLayout = "02 January 2006, 15:04"

// Option adjusts the data of a single email.
type Option func(*EmailData)

// WithTime records when the change happened.
func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format(timeLayout) }
}

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }
func WithPreviousEmail(email string) Option {
	return func(d *EmailData) { d.PreviousEmail = email }
}

// WithExpiresAt tells the reader when the verification link stops working.
func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) { d.ExpiresAtText = t.UTC().Format(timeLayout) }
}

func baseData(cfg *config.Config, name, email, recipient string, opts []Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:    cfg.LogoURL,
		SupportURL: cfg.SupportURL,
		PrivacyURL: cfg.PrivacyURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email, verifyURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithVerifyURL(verifyURL)}, opts...)
	return toMap(baseData(cfg, name, email, email, opts))
}

// NewEmailChangedData addresses the notice to the previous address so the
// account owner learns about the change.
func NewEmailChangedData(cfg *config.Config, name, previousEmail, newEmail string, opts ...Option) map[string]any {
	opts = append([]Option{WithPreviousEmail(previousEmail)}, opts...)
	return toMap(baseData(cfg, name, newEmail, previousEmail, opts))
}

func NewPasswordChangedData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return toMap(baseData(cfg, name, email, email, opts))
}
