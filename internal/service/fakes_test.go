package service

import (
    "context"
    "encoding/json"
    "sync"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
    q "github.com/iliyamo/kashiyatra-booking/internal/queue"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
)

// memStore is an in-memory BookingStore.  Values are deep copied through
// JSON so tests cannot alias stored state.
type memStore struct {
    mu      sync.Mutex
    nextID  uint64
    rows    map[string]*model.Booking
    dupOnce map[string]bool // ids rejected as duplicates the first time they are used
}

func newMemStore() *memStore {
    return &memStore{rows: map[string]*model.Booking{}, dupOnce: map[string]bool{}}
}

func clone(b *model.Booking) *model.Booking {
    raw, err := json.Marshal(b)
    if err != nil {
        panic(err)
    }
    var out model.Booking
    if err := json.Unmarshal(raw, &out); err != nil {
        panic(err)
    }
    return &out
}

func (m *memStore) Create(_ context.Context, b *model.Booking) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.rows[b.BookingID]; ok {
        return repository.ErrDuplicateBookingID
    }
    if m.dupOnce[b.BookingID] {
        delete(m.dupOnce, b.BookingID)
        return repository.ErrDuplicateBookingID
    }
    m.nextID++
    b.ID = m.nextID
    m.rows[b.BookingID] = clone(b)
    return nil
}

func (m *memStore) GetByBookingID(_ context.Context, id string) (*model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.rows[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return clone(b), nil
}

func (m *memStore) Update(_ context.Context, id string, fn func(*model.Booking) error) (*model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.rows[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    work := clone(b)
    if err := fn(work); err != nil {
        return nil, err
    }
    m.rows[id] = clone(work)
    return work, nil
}

func (m *memStore) List(_ context.Context, f repository.BookingFilter) ([]model.Booking, int64, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Booking
    for _, b := range m.rows {
        if f.UserID != 0 && b.UserID != f.UserID {
            continue
        }
        if f.GuideID != 0 && !b.IsAssignedTo(f.GuideID) {
            continue
        }
        out = append(out, *clone(b))
    }
    return out, int64(len(out)), nil
}

type memPackages map[uint64]*model.Package

func (m memPackages) GetByID(_ context.Context, id uint64) (*model.Package, error) {
    p, ok := m[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return p, nil
}

type memUsers map[uint64]model.User

func (m memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    u, ok := m[id]
    if !ok {
        return model.User{}, repository.ErrNotFound
    }
    return u, nil
}

type recordingPublisher struct {
    mu     sync.Mutex
    events []q.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev q.BookingEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return nil
}

func (p *recordingPublisher) types() []string {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]string, len(p.events))
    for i, ev := range p.events {
        out[i] = ev.Type
    }
    return out
}
