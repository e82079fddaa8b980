package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// refreshPath keeps the refresh token off every request except the auth routes.
	refreshPath = "/api/auth"
)

// Manager writes the HttpOnly session cookies.
type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetPair stores both tokens, each living exactly as long as the token it holds.
func (m *Manager) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, access, secondsUntil(aexp), "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshCookie, refresh, secondsUntil(rexp), refreshPath, m.Domain, m.Secure, true)
}

// Clear expires both cookies on the paths SetPair used.
func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, refreshPath, m.Domain, m.Secure, true)
}

// RefreshToken reads the refresh cookie, or "" when absent.
func RefreshToken(c *gin.Context) string {
	v, _ := c.Cookie(RefreshCookie)
	return v
}

func secondsUntil(exp time.Time) int {
	return max(int(time.Until(exp).Seconds()), 0)
}
