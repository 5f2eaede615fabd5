package repository

import (
    "context"
    "database/sql/driver"
    "errors"
    "regexp"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

func newMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return NewBookingRepo(db), mock
}

func sampleBooking() *model.Booking {
    start := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
    end := start.AddDate(0, 0, 3)
    now := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
    return &model.Booking{
        BookingID: "KY17040000000001",
        UserID:    7,
        PackageID: 3,
        Travelers: []model.Traveler{{Name: "Ravi", Gender: model.GenderMale}},
        TripDetails: model.TripDetails{
            StartDate: start, EndDate: &end, Duration: 3,
        },
        ContactInfo: model.ContactInfo{Email: "ravi@example.com", Phone: "999"},
        Pricing: model.Pricing{
            PackagePrice: model.Float64(9000), TaxAmount: 450,
            TotalAmount: model.Float64(9000), FinalAmount: model.Float64(9450),
        },
        Payment:   model.Payment{Status: model.PaymentPending},
        Status:    model.BookingPending,
        Reviews:   []model.Review{},
        CreatedAt: now,
        UpdatedAt: now,
    }
}

var bookingCols = append(append([]string{"id", "booking_id", "user_id", "package_id"}, mutableColumns...), "created_at")

func bookingRow(b *model.Booking) []driver.Value {
    vals, _ := bookingValues(b)
    out := []driver.Value{b.ID, b.BookingID, b.UserID, b.PackageID}
    for _, v := range vals {
        if dv, ok := v.(driver.Valuer); ok {
            v, _ = dv.Value()
        }
        out = append(out, v)
    }
    return append(out, b.CreatedAt)
}

func TestBookingCreateSetsID(t *testing.T) {
    repo, mock := newMock(t)
    b := sampleBooking()

    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings (booking_id, user_id, package_id, travelers")).
        WillReturnResult(sqlmock.NewResult(42, 1))

    if err := repo.Create(context.Background(), b); err != nil {
        t.Fatalf("create: %v", err)
    }
    if b.ID != 42 {
        t.Fatalf("id = %d, want 42", b.ID)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestBookingCreateDuplicateID(t *testing.T) {
    repo, mock := newMock(t)

    mock.ExpectExec("INSERT INTO bookings").
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'KY1' for key 'uq_bookings_booking_id'"})

    err := repo.Create(context.Background(), sampleBooking())
    if !errors.Is(err, ErrDuplicateBookingID) {
        t.Fatalf("expected ErrDuplicateBookingID, got %v", err)
    }
}

func TestBookingGetNotFound(t *testing.T) {
    repo, mock := newMock(t)
    mock.ExpectQuery("SELECT id, booking_id").WithArgs("KY404").
        WillReturnRows(sqlmock.NewRows(bookingCols))

    if _, err := repo.GetByBookingID(context.Background(), "KY404"); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestBookingGetRoundTripsDocument(t *testing.T) {
    repo, mock := newMock(t)
    want := sampleBooking()
    want.ID = 5
    guide := uint64(11)
    want.AssignedGuide = &guide

    mock.ExpectQuery("SELECT id, booking_id").WithArgs(want.BookingID).
        WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow(want)...))

    got, err := repo.GetByBookingID(context.Background(), want.BookingID)
    if err != nil {
        t.Fatalf("get: %v", err)
    }
    if got.ID != 5 || got.UserID != 7 || got.PackageID != 3 {
        t.Fatalf("unexpected identity fields %+v", got)
    }
    if len(got.Travelers) != 1 || got.Travelers[0].Name != "Ravi" {
        t.Fatalf("travelers = %+v", got.Travelers)
    }
    if !got.TripDetails.EndDate.Equal(*want.TripDetails.EndDate) {
        t.Fatalf("end date = %v", got.TripDetails.EndDate)
    }
    if *got.Pricing.FinalAmount != 9450 || got.Pricing.TaxAmount != 450 {
        t.Fatalf("pricing = %+v", got.Pricing)
    }
    if got.AssignedGuide == nil || *got.AssignedGuide != 11 {
        t.Fatalf("assigned guide = %v", got.AssignedGuide)
    }
    if got.Payment.PaidAt != nil || got.Cancellation.RefundAmount != nil {
        t.Fatalf("null columns decoded as values")
    }
}

func TestBookingUpdateRollsBackOnCallbackError(t *testing.T) {
    repo, mock := newMock(t)
    b := sampleBooking()
    b.ID = 9

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT id, booking_id, .* WHERE booking_id = \\? FOR UPDATE").WithArgs(b.BookingID).
        WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow(b)...))
    mock.ExpectRollback()

    _, err := repo.Update(context.Background(), b.BookingID, func(*model.Booking) error { return ErrConflict })
    if !errors.Is(err, ErrConflict) {
        t.Fatalf("expected ErrConflict, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestBookingUpdateWritesChanges(t *testing.T) {
    repo, mock := newMock(t)
    b := sampleBooking()
    b.ID = 9

    mock.ExpectBegin()
    mock.ExpectQuery("FOR UPDATE").WithArgs(b.BookingID).
        WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow(b)...))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET travelers = ?")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    got, err := repo.Update(context.Background(), b.BookingID, func(x *model.Booking) error {
        x.Cancellation.IsCancelled = true
        return nil
    })
    if err != nil {
        t.Fatalf("update: %v", err)
    }
    if !got.Cancellation.IsCancelled {
        t.Fatalf("mutation not returned")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestBuildBookingWhere(t *testing.T) {
    cond, args := buildBookingWhere(BookingFilter{})
    if cond != "1=1" || len(args) != 0 {
        t.Fatalf("empty filter gave %q %v", cond, args)
    }

    yes := true
    from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    cond, args = buildBookingWhere(BookingFilter{
        UserID: 7, Status: "confirmed", PaymentStatus: "paid", Cancelled: &yes, From: &from,
    })
    want := "user_id = ? AND status = ? AND payment_status = ? AND is_cancelled = ? AND start_date >= ?"
    if cond != want {
        t.Fatalf("cond = %q, want %q", cond, want)
    }
    if len(args) != 5 {
        t.Fatalf("args = %v", args)
    }
}

func TestBuildOrder(t *testing.T) {
    got := buildOrder("-finalAmount,startDate,bogus,-finalAmount", bookingSortColumns, "created_at DESC", "id DESC")
    if got != " ORDER BY final_amount DESC, start_date ASC, id DESC" {
        t.Fatalf("order = %q", got)
    }
    if got := buildOrder("", bookingSortColumns, "created_at DESC", "id DESC"); got != " ORDER BY created_at DESC, id DESC" {
        t.Fatalf("default order = %q", got)
    }
    if got := buildOrder("id; DROP TABLE bookings", bookingSortColumns, "created_at DESC", "id DESC"); strings.Contains(got, "DROP") {
        t.Fatalf("unsafe sort key reached SQL: %q", got)
    }
}

func TestBookingListPaginates(t *testing.T) {
    repo, mock := newMock(t)
    b := sampleBooking()
    b.ID = 1

    mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE user_id = ?")).WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))
    mock.ExpectQuery("SELECT id, booking_id, .* WHERE user_id = \\? ORDER BY created_at DESC, id DESC LIMIT \\? OFFSET \\?").
        WithArgs(uint64(7), 12, 12).
        WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow(b)...))

    items, total, err := repo.List(context.Background(), BookingFilter{UserID: 7, Page: 2})
    if err != nil {
        t.Fatalf("list: %v", err)
    }
    if total != 13 || len(items) != 1 {
        t.Fatalf("total=%d items=%d", total, len(items))
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestSequenceNext(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()
    seq := NewSequenceRepo(db, "booking")

    mock.ExpectExec(regexp.QuoteMeta("UPDATE booking_sequences SET value = LAST_INSERT_ID(value + 1) WHERE name = ?")).
        WithArgs("booking").WillReturnResult(sqlmock.NewResult(18, 1))
    mock.ExpectExec("UPDATE booking_sequences").
        WithArgs("booking").WillReturnResult(sqlmock.NewResult(0, 0))

    n, err := seq.Next(context.Background())
    if err != nil || n != 18 {
        t.Fatalf("next = %d, %v", n, err)
    }
    if _, err := seq.Next(context.Background()); !errors.Is(err, ErrNotFound) {
        t.Fatalf("missing counter row: expected ErrNotFound, got %v", err)
    }
}
