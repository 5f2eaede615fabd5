// Package config loads application configuration from environment variables.
package config

import (
    "log"
    "os"
    "strconv"
    "strings"

    "github.com/joho/godotenv"
)

// Config holds the runtime configuration.  Required values are enforced by
// must/mustInt; optional ones fall back to defaults.
type Config struct {
    Env            string // application environment (development, production)
    Port           string // HTTP port to listen on
    DBUser         string
    DBPass         string // may be empty
    DBHost         string
    DBPort         string
    DBName         string
    JWTSecret      string // HS256 signing secret
    AccessTTLMin   int    // access token lifetime in minutes
    RefreshTTLDays int    // refresh token lifetime in days
    BcryptCost     int

    ClientURL       string // allowed CORS origin
    BodyLimit       string // echo BodyLimit size, e.g. "10M"
    BookingIDPrefix string // prefix of generated booking identifiers
    BookingSequence string // counter backend: mysql, redis or memory
    BookingLogPath  string // file the event consumer appends to
}

// Sequence backends accepted by BOOKING_SEQUENCE.
const (
    SequenceMySQL  = "mysql"
    SequenceRedis  = "redis"
    SequenceMemory = "memory"
)

// LoadDotEnv reads .env from the working directory when present.  A
// missing file is not an error; the process environment always wins.
func LoadDotEnv() {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("config: .env not loaded: %v", err)
    }
}

// Load reads configuration values from the environment.  Missing required
// variables terminate the program.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"),
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),

        ClientURL:       envStr("CLIENT_URL", "http://localhost:3000"),
        BodyLimit:       envStr("BODY_LIMIT", "10M"),
        BookingIDPrefix: envStr("BOOKING_ID_PREFIX", "KY"),
        BookingSequence: sequenceBackend(envStr("BOOKING_SEQUENCE", SequenceMySQL)),
        BookingLogPath:  envStr("BOOKING_LOG_PATH", "logs/booking.log"),
    }
}

// IsDevelopment reports whether the server runs in a development setting,
// where error responses may carry more detail.
func (c Config) IsDevelopment() bool {
    switch strings.ToLower(c.Env) {
    case "dev", "development", "local":
        return true
    }
    return false
}

func sequenceBackend(s string) string {
    switch s = strings.ToLower(strings.TrimSpace(s)); s {
    case SequenceMySQL, SequenceRedis, SequenceMemory:
        return s
    }
    log.Printf("config: unknown BOOKING_SEQUENCE %q, using %s", s, SequenceMySQL)
    return SequenceMySQL
}

func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
