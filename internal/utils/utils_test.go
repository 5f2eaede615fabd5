package utils

import (
    "errors"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("secret", 42, "GUIDE", 15)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    cl, err := ParseAccessToken("secret", tok.Token)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if cl.UserID != 42 || cl.Role != "GUIDE" {
        t.Fatalf("claims = %+v", cl)
    }
    if _, err := ParseAccessToken("other", tok.Token); !errors.Is(err, ErrInvalidToken) {
        t.Fatalf("wrong secret accepted: %v", err)
    }
}

func TestParseAccessTokenRejects(t *testing.T) {
    sign := func(claims jwt.MapClaims) string {
        s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
        if err != nil {
            t.Fatalf("sign: %v", err)
        }
        return s
    }
    future := time.Now().Add(time.Hour).Unix()
    cases := map[string]string{
        "expired":    sign(jwt.MapClaims{"sub": "1", "role": "ADMIN", "exp": time.Now().Add(-time.Hour).Unix()}),
        "no expiry":  sign(jwt.MapClaims{"sub": "1", "role": "ADMIN"}),
        "no subject": sign(jwt.MapClaims{"role": "ADMIN", "exp": future}),
        "no role":    sign(jwt.MapClaims{"sub": "1", "exp": future}),
        "garbage":    "not.a.token",
    }
    for name, raw := range cases {
        if _, err := ParseAccessToken("secret", raw); !errors.Is(err, ErrInvalidToken) {
            t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
        }
    }
    // Numeric subjects issued by older tokens still parse.
    cl, err := ParseAccessToken("secret", sign(jwt.MapClaims{"sub": 7, "role": "CUSTOMER", "exp": future}))
    if err != nil || cl.UserID != 7 {
        t.Fatalf("numeric sub: %+v %v", cl, err)
    }
}

func TestRefreshTokenHash(t *testing.T) {
    a, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("refresh: %v", err)
    }
    b, _ := NewRefreshToken(7)
    if len(a.Raw) != 96 || a.Raw == b.Raw {
        t.Fatalf("refresh tokens not random: %q %q", a.Raw, b.Raw)
    }
    if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) || HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
        t.Fatalf("hash not deterministic")
    }
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("kashi123", 4)
    if err != nil {
        t.Fatalf("hash: %v", err)
    }
    if !VerifyPassword(hash, "kashi123") || VerifyPassword(hash, "wrong") {
        t.Fatalf("verify mismatch")
    }

    hash, err = HashPassword("kashi123", 99)
    if err != nil {
        t.Fatalf("out of range cost: %v", err)
    }
    if cost, _ := bcrypt.Cost([]byte(hash)); cost != bcrypt.DefaultCost {
        t.Fatalf("cost = %d", cost)
    }
}

func TestParseDate(t *testing.T) {
    d, err := ParseDate("2024-02-29")
    if err != nil || !d.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
        t.Fatalf("date = %v %v", d, err)
    }
    d, err = ParseDate("2024-03-01T05:30:00+05:30")
    if err != nil || !d.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || d.Location() != time.UTC {
        t.Fatalf("timestamp = %v %v", d, err)
    }
    d, err = ParseDate("2024-03-01T10:00:00.7654321Z")
    if err != nil || !d.Equal(time.Date(2024, 3, 1, 10, 0, 0, 765000000, time.UTC)) {
        t.Fatalf("fractional timestamp = %v %v", d, err)
    }
    for _, bad := range []string{"2024-02-30", "01/02/2024", "soon"} {
        if _, err := ParseDate(bad); err == nil {
            t.Fatalf("%q accepted", bad)
        }
    }
    if p, err := ParseOptionalDate(" "); p != nil || err != nil {
        t.Fatalf("empty optional = %v %v", p, err)
    }
}
