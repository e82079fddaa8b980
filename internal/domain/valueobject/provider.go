package valueobject

import "fmt"

// Provider tags the identity provider an account was registered with.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// NewProvider parses a provider tag. An empty tag means local.
func NewProvider(raw string) (Provider, error) {
	switch p := Provider(raw); p {
	case "":
		return ProviderLocal, nil
	case ProviderLocal, ProviderGoogle, ProviderGitHub:
		return p, nil
	default:
		return "", fmt.Errorf("%w: provider %q", ErrInvalidFormat, raw)
	}
}

func (p Provider) String() string { return string(p) }

// IsOAuth reports whether the provider is an external identity provider.
func (p Provider) IsOAuth() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}
