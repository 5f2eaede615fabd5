package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
    "github.com/iliyamo/kashiyatra-booking/internal/utils"
)

const testSecret = "handler-test-secret"

type fakeUsers struct {
    mu    sync.Mutex
    next  uint64
    byID  map[uint64]model.User
    email map[string]uint64
}

func newFakeUsers() *fakeUsers {
    return &fakeUsers{byID: map[uint64]model.User{}, email: map[string]uint64{}}
}

func (f *fakeUsers) Create(_ context.Context, in repository.NewUser, cost int) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    em := strings.ToLower(strings.TrimSpace(in.Email))
    if _, ok := f.email[em]; ok {
        return 0, repository.ErrEmailExists
    }
    hash, err := utils.HashPassword(in.Password, cost)
    if err != nil {
        return 0, err
    }
    f.next++
    f.byID[f.next] = model.User{ID: f.next, Name: in.Name, Email: em, PasswordHash: hash, Role: in.Role, IsActive: true}
    f.email[em] = f.next
    return f.next, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    id, ok := f.email[strings.ToLower(strings.TrimSpace(email))]
    if !ok {
        return model.User{}, repository.ErrNotFound
    }
    return f.byID[id], nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.byID[id]
    if !ok {
        return model.User{}, repository.ErrNotFound
    }
    return u, nil
}

func (f *fakeUsers) SetRole(_ context.Context, id uint64, role string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.byID[id]
    if !ok {
        return repository.ErrNotFound
    }
    u.Role = role
    f.byID[id] = u
    return nil
}

type fakeTokens struct {
    mu   sync.Mutex
    live map[string]uint64
}

func newFakeTokens() *fakeTokens { return &fakeTokens{live: map[string]uint64{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.live[hash] = userID
    return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    id, ok := f.live[hash]
    if !ok {
        return 0, repository.ErrNotFound
    }
    return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    delete(f.live, hash)
    return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for h, id := range f.live {
        if id == userID {
            delete(f.live, h)
        }
    }
    return nil
}

type fakePackages struct {
    mu    sync.Mutex
    rows  map[uint64]*model.Package
    next  uint64
    lastQ repository.PackageQuery
    total int64
}

func newFakePackages(ps ...model.Package) *fakePackages {
    f := &fakePackages{rows: map[uint64]*model.Package{}}
    for i := range ps {
        p := ps[i]
        f.rows[p.ID] = &p
        if p.ID > f.next {
            f.next = p.ID
        }
    }
    return f
}

func (f *fakePackages) List(_ context.Context, q repository.PackageQuery) ([]model.Package, int64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.lastQ = q
    var out []model.Package
    for _, p := range f.rows {
        if p.IsActive {
            out = append(out, *p)
        }
    }
    total := int64(len(out))
    if f.total > 0 {
        total = f.total
    }
    return out, total, nil
}

func (f *fakePackages) GetByID(_ context.Context, id uint64) (*model.Package, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    p, ok := f.rows[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *p
    return &cp, nil
}

func (f *fakePackages) Create(_ context.Context, p *model.Package) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.next++
    p.ID = f.next
    cp := *p
    f.rows[p.ID] = &cp
    return nil
}

func (f *fakePackages) Update(_ context.Context, p *model.Package) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.rows[p.ID]; !ok {
        return repository.ErrNotFound
    }
    cp := *p
    f.rows[p.ID] = &cp
    return nil
}

func (f *fakePackages) Delete(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    p, ok := f.rows[id]
    if !ok {
        return repository.ErrNotFound
    }
    p.IsActive = false
    return nil
}

func (f *fakePackages) Categories(context.Context) ([]string, error) {
    return []string{"cultural", "spiritual"}, nil
}

// fakeBookings keeps bookings as JSON so callers never share state with
// the store.
type fakeBookings struct {
    mu   sync.Mutex
    next uint64
    rows map[string][]byte
}

func newFakeBookings() *fakeBookings { return &fakeBookings{rows: map[string][]byte{}} }

func (f *fakeBookings) load(id string) (*model.Booking, bool) {
    raw, ok := f.rows[id]
    if !ok {
        return nil, false
    }
    var b model.Booking
    if err := json.Unmarshal(raw, &b); err != nil {
        panic(err)
    }
    return &b, true
}

func (f *fakeBookings) store(b *model.Booking) {
    raw, err := json.Marshal(b)
    if err != nil {
        panic(err)
    }
    f.rows[b.BookingID] = raw
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.rows[b.BookingID]; ok {
        return repository.ErrDuplicateBookingID
    }
    f.next++
    b.ID = f.next
    f.store(b)
    return nil
}

func (f *fakeBookings) GetByBookingID(_ context.Context, id string) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.load(id)
    if !ok {
        return nil, repository.ErrNotFound
    }
    return b, nil
}

func (f *fakeBookings) Update(_ context.Context, id string, fn func(*model.Booking) error) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.load(id)
    if !ok {
        return nil, repository.ErrNotFound
    }
    if err := fn(b); err != nil {
        return nil, err
    }
    f.store(b)
    return b, nil
}

func (f *fakeBookings) List(_ context.Context, flt repository.BookingFilter) ([]model.Booking, int64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Booking
    for id := range f.rows {
        b, _ := f.load(id)
        if flt.UserID != 0 && b.UserID != flt.UserID {
            continue
        }
        if flt.GuideID != 0 && !b.IsAssignedTo(flt.GuideID) {
            continue
        }
        out = append(out, *b)
    }
    return out, int64(len(out)), nil
}

// bearer returns an Authorization header value for the given identity.
func bearer(t *testing.T, userID uint64, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, userID, role, 5)
    if err != nil {
        t.Fatalf("access token: %v", err)
    }
    return "Bearer " + tok.Token
}

// do sends a JSON request through e and returns the recorder.
func do(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, path, nil)
    }
    if auth != "" {
        req.Header.Set(echo.HeaderAuthorization, auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
    t.Helper()
    if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
}
