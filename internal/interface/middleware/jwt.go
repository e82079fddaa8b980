package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/response"
)

// RequireAuthority aborts with 403 unless the authenticated token carries the
// authority. It must run after Auth.
func RequireAuthority(authority string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			unauthorized(c, "missing access token", nil)
			return
		}
		if !claims.HasAuthority(authority) {
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}

// AdminOnly restricts a route to ADMIN holders.
func AdminOnly() gin.HandlerFunc {
	return RequireAuthority(entity.AuthorityAdmin)
}

// RequireAuthorityForParam applies RequireAuthority only to requests whose
// route parameter param equals value.
func RequireAuthorityForParam(param, value, authority string) gin.HandlerFunc {
	guard := RequireAuthority(authority)
	return func(c *gin.Context) {
		if c.Param(param) != value {
			c.Next()
			return
		}
		guard(c)
	}
}
