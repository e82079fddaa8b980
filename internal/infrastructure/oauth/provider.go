package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrNoEmail         = errors.New("provider returned no verified email")
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// Profile is what the service needs to know about an externally authenticated user.
type Profile struct {
	Provider string
	Email    string
	Username string
}

// Provider runs the authorization-code flow against one identity provider.
type Provider struct {
	Name   string
	Config *oauth2.Config
	// fetch loads the profile with an authorized client.
	fetch func(ctx context.Context, client *http.Client) (Profile, error)
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a token and loads the user's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%s exchange: %w", p.Name, err)
	}
	prof, err := p.fetch(ctx, p.Config.Client(ctx, tok))
	if err != nil {
		return Profile{}, fmt.Errorf("%s profile: %w", p.Name, err)
	}
	prof.Provider = p.Name
	if prof.Username == "" {
		prof.Username, _, _ = strings.Cut(prof.Email, "@")
	}
	return prof, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", url, res.Status, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(res.Body).Decode(dest)
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Provider {
	return newGoogle(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}, googleUserInfoURL)
}

func newGoogle(cfg *oauth2.Config, userInfoURL string) *Provider {
	return &Provider{
		Name:   valueobject.ProviderGoogle.String(),
		Config: cfg,
		fetch: func(ctx context.Context, client *http.Client) (Profile, error) {
			var info struct {
				Email         string `json:"email"`
				VerifiedEmail bool   `json:"verified_email"`
				Name          string `json:"name"`
			}
			if err := getJSON(ctx, client, userInfoURL, &info); err != nil {
				return Profile{}, err
			}
			if info.Email == "" || !info.VerifiedEmail {
				return Profile{}, ErrNoEmail
			}
			return Profile{Email: info.Email, Username: info.Name}, nil
		},
	}
}

func NewGitHub(clientID, clientSecret, redirectURL string) *Provider {
	return newGitHub(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     github.Endpoint,
		Scopes:       []string{"read:user", "user:email"},
	}, githubUserURL, githubEmailsURL)
}

func newGitHub(cfg *oauth2.Config, userURL, emailsURL string) *Provider {
	return &Provider{
		Name:   valueobject.ProviderGitHub.String(),
		Config: cfg,
		fetch: func(ctx context.Context, client *http.Client) (Profile, error) {
			var user struct {
				Login string `json:"login"`
				Email string `json:"email"`
			}
			if err := getJSON(ctx, client, userURL, &user); err != nil {
				return Profile{}, err
			}
			if user.Email != "" {
				return Profile{Email: user.Email, Username: user.Login}, nil
			}
			// Private addresses are only listed by the emails endpoint.
			var emails []struct {
				Email    string `json:"email"`
				Primary  bool   `json:"primary"`
				Verified bool   `json:"verified"`
			}
			if err := getJSON(ctx, client, emailsURL, &emails); err != nil {
				return Profile{}, err
			}
			for _, e := range emails {
				if e.Primary && e.Verified {
					return Profile{Email: e.Email, Username: user.Login}, nil
				}
			}
			return Profile{}, ErrNoEmail
		},
	}
}

// Providers holds the configured identity providers by name.
type Providers struct {
	byName map[string]*Provider
}

func NewProviders(ps ...*Provider) *Providers {
	m := make(map[string]*Provider, len(ps))
	for _, p := range ps {
		if p != nil && p.Config.ClientID != "" {
			m[p.Name] = p
		}
	}
	return &Providers{byName: m}
}

func (r *Providers) Get(name string) (*Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}
