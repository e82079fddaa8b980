package middleware

import (
	"net"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
)

// AllowPrivateIP lets loopback and private-network callers skip the limiter.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip := net.ParseIP(ipFromCtx(c))
		return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
	}
}

// AllowAuthority lets callers whose token carries authority skip the limiter.
// It only sees claims when it runs after Auth.
func AllowAuthority(authority string) AllowFunc {
	return func(c *gin.Context) bool {
		claims := ClaimsFrom(c)
		return claims != nil && claims.HasAuthority(authority)
	}
}

// AllowAdmins exempts ADMIN holders.
func AllowAdmins() AllowFunc {
	return AllowAuthority(entity.AuthorityAdmin)
}

// AnyOf bypasses when any of the rules does. Nil rules are skipped.
func AnyOf(rules ...AllowFunc) AllowFunc {
	return func(c *gin.Context) bool {
		for _, r := range rules {
			if r != nil && r(c) {
				return true
			}
		}
		return false
	}
}
