package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/config"
    "github.com/iliyamo/kashiyatra-booking/internal/utils"
)

func protected(secret string, roles ...string) *echo.Echo {
    e := echo.New()
    e.GET("/v1/me", func(c echo.Context) error {
        id, _ := UserID(c)
        return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c)})
    }, JWTAuth(secret), RequireRole(roles...))
    return e
}

func call(e *echo.Echo, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
    if auth != "" {
        req.Header.Set(echo.HeaderAuthorization, auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthSetsIdentity(t *testing.T) {
    tok, err := utils.NewAccessToken("secret", 12, "ADMIN", 5)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    rec := call(protected("secret", "ADMIN"), "Bearer "+tok.Token)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
    }
    if body := rec.Body.String(); !strings.Contains(body, `"id":12`) || !strings.Contains(body, `"role":"ADMIN"`) {
        t.Fatalf("body = %s", body)
    }
}

func TestJWTAuthRejects(t *testing.T) {
    e := protected("secret", "ADMIN")
    if rec := call(e, ""); rec.Code != http.StatusUnauthorized {
        t.Fatalf("missing header: status = %d", rec.Code)
    }
    if rec := call(e, "Bearer nope"); rec.Code != http.StatusUnauthorized {
        t.Fatalf("bad token: status = %d", rec.Code)
    }
    other, _ := utils.NewAccessToken("other-secret", 12, "ADMIN", 5)
    if rec := call(e, "Bearer "+other.Token); rec.Code != http.StatusUnauthorized {
        t.Fatalf("foreign token: status = %d", rec.Code)
    }
}

func TestRequireRole(t *testing.T) {
    tok, _ := utils.NewAccessToken("secret", 3, "CUSTOMER", 5)
    if rec := call(protected("secret", "ADMIN", "GUIDE"), "Bearer "+tok.Token); rec.Code != http.StatusForbidden {
        t.Fatalf("status = %d, want 403", rec.Code)
    }
    if rec := call(protected("secret", "ADMIN", "CUSTOMER"), "Bearer "+tok.Token); rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200", rec.Code)
    }
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/bookings")

    cfg := config.RateLimitConfig{Prefix: "ky:rl", KeyStrategy: "ip"}
    if got := buildRateKey(cfg, c); got != "ky:rl:ip:10.0.0.9" {
        t.Fatalf("ip key = %q", got)
    }
    cfg.KeyStrategy = "ip_user_route"
    if got := buildRateKey(cfg, c); got != "ky:rl:ip:10.0.0.9:user:anon:route:POST /v1/bookings" {
        t.Fatalf("guest key = %q", got)
    }
    c.Set(ContextUserID, uint64(5))
    cfg.KeyStrategy = "user"
    if got := buildRateKey(cfg, c); got != "ky:rl:user:5" {
        t.Fatalf("user key = %q", got)
    }
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
    e := echo.New()
    e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
    e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil))
    e.GET("/v1/packages", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/packages", nil))
    if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
        t.Fatalf("status=%d x-cache=%q", rec.Code, rec.Header().Get("X-Cache"))
    }
}

func TestCachePayloadRoundTrip(t *testing.T) {
    hdr := http.Header{echo.HeaderContentType: {echo.MIMEApplicationJSON}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
    if err != nil {
        t.Fatalf("encode: %v", err)
    }
    status, got, body, ok := decodePayload(bs)
    if !ok || status != http.StatusOK || got.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON || string(body) != `{"success":true}` {
        t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
    }
    if _, _, _, ok := decodePayload(bs[:6]); ok {
        t.Fatalf("truncated payload accepted")
    }
}

func TestCacheKeyDependsOnQuery(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "ky:cache", KeyStrategy: "route_query"}
    key := func(target string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/v1/packages")
        return cacheKeyFrom(cfg, c)
    }
    a, b := key("/v1/packages?page=1"), key("/v1/packages?page=2")
    if a == b || !strings.HasPrefix(a, "ky:cache:") {
        t.Fatalf("keys %q %q", a, b)
    }
    if key("/v1/packages?page=1") != a {
        t.Fatalf("key not stable")
    }
}
