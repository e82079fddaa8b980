package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("a", "r", "v", time.Minute, time.Hour, time.Hour)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsBearerAndCookie(t *testing.T) {
	jwt := newJWT()
	tok, _, err := jwt.GenerateAccessToken("u1", "u1@x.io", "sid", []string{"USER"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	r := gin.New()
	r.GET("/me", Auth(nil, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey)+"|"+c.GetString(CtxUserEmailKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if w := serve(r, req); w.Code != http.StatusOK || w.Body.String() != "u1|u1@x.io" {
		t.Fatalf("bearer: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: tok})
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("cookie: %d", w.Code)
	}
}

func TestAuthRejects(t *testing.T) {
	jwt := newJWT()
	refresh, _, _ := jwt.GenerateRefreshToken("u1", "u1@x.io", "sid", nil)

	r := gin.New()
	r.GET("/me", Auth(nil, jwt), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	if w := serve(r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token used as access token: %d", w.Code)
	}
}

func TestAdminOnly(t *testing.T) {
	jwt := newJWT()
	userTok, _, _ := jwt.GenerateAccessToken("u1", "u1@x.io", "s", []string{"USER"})
	adminTok, _, _ := jwt.GenerateAccessToken("u2", "u2@x.io", "s", []string{"USER", "ADMIN"})

	r := gin.New()
	r.GET("/users", Auth(nil, jwt), AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for tok, want := range map[string]int{userTok: http.StatusForbidden, adminTok: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if w := serve(r, req); w.Code != want {
			t.Fatalf("status = %d, want %d", w.Code, want)
		}
	}

	bare := gin.New()
	bare.GET("/users", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := serve(bare, httptest.NewRequest(http.MethodGet, "/users", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("without Auth: %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() == "" || w.Header().Get("X-Request-ID") != w.Body.String() {
		t.Fatalf("generated id %q / %q", w.Body.String(), w.Header().Get("X-Request-ID"))
	}

	const inbound = "6a2f41a3-c54c-4c01-9c59-3a7f1d0f0b10"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", inbound)
	if w := serve(r, req); w.Body.String() != inbound {
		t.Fatalf("inbound id not reused: %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "<script>")
	if w := serve(r, req); w.Body.String() == "<script>" {
		t.Fatalf("malformed inbound id reused")
	}
}

func TestRealIPAndKeys(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, KeyByIP()(c)+" "+KeyByUserID()(c)+" "+KeyByIPAndPath()(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.2:41000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := serve(r, req)
	want := "rl:ip:203.0.113.7 rl:user:anon:ip:203.0.113.7 rl:path:/x:ip:203.0.113.7"
	if w.Body.String() != want {
		t.Fatalf("keys = %q", w.Body.String())
	}
}

func TestRealIPIgnoresHeadersFromPublicPeers(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ctxRealIPKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "198.51.100.9:5000"
	req.Header.Set("X-Forwarded-For", "10.9.9.9")
	req.Header.Set("CF-Connecting-IP", "10.9.9.9")
	if w := serve(r, req); w.Body.String() != "198.51.100.9" {
		t.Fatalf("spoofed header trusted: %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	req.Header.Set("CF-Connecting-IP", "203.0.113.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.2")
	if w := serve(r, req); w.Body.String() != "203.0.113.1" {
		t.Fatalf("proxy header order not honoured: %q", w.Body.String())
	}
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	for ip, want := range map[string]bool{"10.1.2.3": true, "127.0.0.1": true, "8.8.8.8": false, "garbage": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set(ctxRealIPKey, ip)
		if got := allow(c); got != want {
			t.Fatalf("%s: allow = %v", ip, got)
		}
	}
}

func TestAllowAdminsAndAnyOf(t *testing.T) {
	ctx := func(claims *helpers.Claims, ip string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set(ctxRealIPKey, ip)
		if claims != nil {
			c.Set(CtxClaimsKey, claims)
		}
		return c
	}
	admin := &helpers.Claims{Authorities: []string{"USER", "ADMIN"}}
	user := &helpers.Claims{Authorities: []string{"USER"}}

	if !AllowAdmins()(ctx(admin, "8.8.8.8")) {
		t.Fatalf("admin should bypass")
	}
	if AllowAdmins()(ctx(user, "8.8.8.8")) || AllowAdmins()(ctx(nil, "8.8.8.8")) {
		t.Fatalf("non-admin must not bypass")
	}

	rule := AnyOf(nil, AllowPrivateIP(), AllowAdmins())
	if !rule(ctx(user, "10.0.0.1")) || !rule(ctx(admin, "8.8.8.8")) {
		t.Fatalf("AnyOf should accept when one rule does")
	}
	if rule(ctx(user, "8.8.8.8")) {
		t.Fatalf("AnyOf should reject when no rule does")
	}
}

func TestRateLimitWithoutRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(nil, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		if w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
}

func TestAccessLogLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetOutput(io.Discard)

	r := gin.New()
	r.Use(AccessLog(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := hook.AllEntries()
	if len(entries) != 2 || entries[0].Level != logrus.InfoLevel || entries[1].Level != logrus.ErrorLevel {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[1].Data["path"] != "/fail" {
		t.Fatalf("path field = %v", entries[1].Data["path"])
	}
}

func TestRequireAuthorityForParam(t *testing.T) {
	jwt := newJWT()
	userTok, _, _ := jwt.GenerateAccessToken("u1", "u1@x.io", "s", []string{"USER"})
	adminTok, _, _ := jwt.GenerateAccessToken("u2", "u2@x.io", "s", []string{"USER", "ADMIN"})

	r := gin.New()
	r.PATCH("/action/:action", Auth(nil, jwt),
		RequireAuthorityForParam("action", "updateAuthorities", "ADMIN"),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		path, token string
		want        int
	}{
		{"/action/updateAuthorities", userTok, http.StatusForbidden},
		{"/action/updateAuthorities", adminTok, http.StatusOK},
		{"/action/changeUsername", userTok, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPatch, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		if w := serve(r, req); w.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.path, w.Code, tc.want)
		}
	}
}
