// Package service holds the booking lifecycle rules and the supporting
// pieces they need: identifier generation, event publishing and invoice
// rendering.
package service

import (
    "context"
    "fmt"
    "strconv"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
)

// DefaultBookingIDPrefix starts every generated booking identifier.
const DefaultBookingIDPrefix = "KY"

// Sequence hands out strictly increasing values.  Implementations must be
// safe for concurrent use and must never return the same value twice.
type Sequence interface {
    Next(ctx context.Context) (uint64, error)
}

// MemorySequence is a process-local counter.  It only guarantees
// uniqueness within a single instance.
type MemorySequence struct {
    mu sync.Mutex
    n  uint64
}

// NewMemorySequence returns a counter whose first value is start+1.
func NewMemorySequence(start uint64) *MemorySequence {
    return &MemorySequence{n: start}
}

func (s *MemorySequence) Next(context.Context) (uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.n++
    return s.n, nil
}

// RedisSequence uses INCR on a single key, shared by all instances that
// point at the same Redis.
type RedisSequence struct {
    Client *redis.Client
    Key    string
}

func (s *RedisSequence) Next(ctx context.Context) (uint64, error) {
    n, err := s.Client.Incr(ctx, s.Key).Result()
    if err != nil {
        return 0, fmt.Errorf("redis incr %s: %w", s.Key, err)
    }
    return uint64(n), nil
}

// IDGenerator builds booking identifiers of the form
// <prefix><epoch millis><sequence>.  The millisecond part is 13 digits
// wide for any date this side of 2286, so distinct sequence values always
// give distinct identifiers.
type IDGenerator struct {
    Prefix string
    Seq    Sequence
    Now    func() time.Time
}

// NewIDGenerator returns a generator using the wall clock.
func NewIDGenerator(prefix string, seq Sequence) *IDGenerator {
    if prefix == "" {
        prefix = DefaultBookingIDPrefix
    }
    return &IDGenerator{Prefix: prefix, Seq: seq, Now: time.Now}
}

// Generate returns a fresh identifier.
func (g *IDGenerator) Generate(ctx context.Context) (string, error) {
    n, err := g.Seq.Next(ctx)
    if err != nil {
        return "", fmt.Errorf("next booking sequence: %w", err)
    }
    now := time.Now
    if g.Now != nil {
        now = g.Now
    }
    return g.Prefix + strconv.FormatInt(now().UnixMilli(), 10) + strconv.FormatUint(n, 10), nil
}
