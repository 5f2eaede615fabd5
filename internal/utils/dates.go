package utils

import (
    "fmt"
    "strings"
    "time"
)

// DateLayout is the calendar date format used in query strings and
// request bodies.
const DateLayout = "2006-01-02"

// ParseDate accepts a bare calendar date or an RFC 3339 timestamp and
// returns it in UTC, truncated to the millisecond precision the bookings
// table stores.
func ParseDate(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
        return t, nil
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t.UTC().Truncate(time.Millisecond), nil
    }
    return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
}

// ParseOptionalDate is ParseDate for optional inputs; an empty string
// yields nil.
func ParseOptionalDate(s string) (*time.Time, error) {
    if strings.TrimSpace(s) == "" {
        return nil, nil
    }
    t, err := ParseDate(s)
    if err != nil {
        return nil, err
    }
    return &t, nil
}
