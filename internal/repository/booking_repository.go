package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

// BookingRepo stores bookings in the bookings table.  Scalar fields that
// are filtered or sorted on live in their own columns; the nested
// records (travelers, contact info, reviews) are stored as JSON so the
// document shape survives a round trip unchanged.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// mutableColumns are written on both insert and update, in this order.
var mutableColumns = []string{
    "travelers", "start_date", "end_date", "duration_days", "contact_info",
    "package_price", "extra_charges", "discount", "tax_amount", "total_amount", "final_amount",
    "payment_status", "payment_method", "transaction_id", "razorpay_order_id", "razorpay_payment_id", "paid_at",
    "status", "special_requests", "assigned_guide",
    "is_cancelled", "cancelled_at", "cancellation_reason", "refund_amount",
    "reviews", "updated_at",
}

var (
    bookingSelect = "SELECT id, booking_id, user_id, package_id, " +
        strings.Join(mutableColumns, ", ") + ", created_at FROM bookings"
    bookingInsert = "INSERT INTO bookings (booking_id, user_id, package_id, " +
        strings.Join(mutableColumns, ", ") + ", created_at) VALUES (?, ?, ?" +
        strings.Repeat(", ?", len(mutableColumns)) + ", ?)"
    bookingUpdate = "UPDATE bookings SET " +
        strings.Join(mutableColumns, " = ?, ") + " = ? WHERE id = ?"
)

// BookingFilter narrows List.  Zero values mean "any".
type BookingFilter struct {
    UserID        uint64
    GuideID       uint64
    PackageID     uint64
    Status        string
    PaymentStatus string
    Cancelled     *bool
    From          *time.Time // start_date >= From
    To            *time.Time // start_date <= To
    Sort          string
    Page          int
    Limit         int
}

var bookingSortColumns = map[string]string{
    "createdAt":   "created_at",
    "startDate":   "start_date",
    "finalAmount": "final_amount",
    "status":      "status",
}

// Create inserts b and sets b.ID.  A clash on the booking_id unique index
// is reported as ErrDuplicateBookingID.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    vals, err := bookingValues(b)
    if err != nil {
        return err
    }
    args := make([]any, 0, len(vals)+4)
    args = append(args, b.BookingID, b.UserID, b.PackageID)
    args = append(args, vals...)
    args = append(args, b.CreatedAt)
    res, err := r.db.ExecContext(ctx, bookingInsert, args...)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicateBookingID
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// GetByBookingID returns the booking with the given public identifier.
func (r *BookingRepo) GetByBookingID(ctx context.Context, bookingID string) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, bookingSelect+" WHERE booking_id = ?", bookingID)
    b, err := scanBooking(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return b, err
}

// Update loads the booking with a row lock, applies fn and writes the
// result back in the same transaction.  If fn returns an error nothing is
// written and the error is returned unchanged.
func (r *BookingRepo) Update(ctx context.Context, bookingID string, fn func(*model.Booking) error) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, err := scanBooking(tx.QueryRowContext(ctx, bookingSelect+" WHERE booking_id = ? FOR UPDATE", bookingID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if err := fn(b); err != nil {
        return nil, err
    }
    vals, err := bookingValues(b)
    if err != nil {
        return nil, err
    }
    if _, err := tx.ExecContext(ctx, bookingUpdate, append(vals, b.ID)...); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return b, nil
}

// List returns one page of bookings matching f along with the total number
// of matches.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, int64, error) {
    cond, args := buildBookingWhere(f)

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    _, limit, offset := NormalizePage(f.Page, f.Limit)
    q := bookingSelect + " WHERE " + cond +
        buildOrder(f.Sort, bookingSortColumns, "created_at DESC", "id DESC") +
        " LIMIT ? OFFSET ?"
    rows, err := r.db.QueryContext(ctx, q, append(append([]any{}, args...), limit, offset)...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]model.Booking, 0, limit)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// buildBookingWhere translates a filter into a WHERE condition.
func buildBookingWhere(f BookingFilter) (string, []any) {
    where := []string{}
    args := []any{}
    if f.UserID != 0 {
        where = append(where, "user_id = ?")
        args = append(args, f.UserID)
    }
    if f.GuideID != 0 {
        where = append(where, "assigned_guide = ?")
        args = append(args, f.GuideID)
    }
    if f.PackageID != 0 {
        where = append(where, "package_id = ?")
        args = append(args, f.PackageID)
    }
    if f.Status != "" {
        where = append(where, "status = ?")
        args = append(args, f.Status)
    }
    if f.PaymentStatus != "" {
        where = append(where, "payment_status = ?")
        args = append(args, f.PaymentStatus)
    }
    if f.Cancelled != nil {
        where = append(where, "is_cancelled = ?")
        args = append(args, *f.Cancelled)
    }
    if f.From != nil {
        where = append(where, "start_date >= ?")
        args = append(args, *f.From)
    }
    if f.To != nil {
        where = append(where, "start_date <= ?")
        args = append(args, *f.To)
    }
    if len(where) == 0 {
        return "1=1", args
    }
    return strings.Join(where, " AND "), args
}

// bookingValues returns the mutableColumns values for b.
func bookingValues(b *model.Booking) ([]any, error) {
    travelers, err := json.Marshal(nonNil(b.Travelers))
    if err != nil {
        return nil, fmt.Errorf("marshal travelers: %w", err)
    }
    contact, err := json.Marshal(b.ContactInfo)
    if err != nil {
        return nil, fmt.Errorf("marshal contact info: %w", err)
    }
    reviews, err := json.Marshal(nonNil(b.Reviews))
    if err != nil {
        return nil, fmt.Errorf("marshal reviews: %w", err)
    }
    p := b.Pricing
    return []any{
        travelers, b.TripDetails.StartDate, nullTime(b.TripDetails.EndDate), b.TripDetails.Duration, contact,
        model.Amount(p.PackagePrice), p.ExtraCharges, p.Discount, p.TaxAmount, model.Amount(p.TotalAmount), model.Amount(p.FinalAmount),
        string(b.Payment.Status), nullString(string(b.Payment.Method)), nullString(b.Payment.TransactionID),
        nullString(b.Payment.RazorpayOrderID), nullString(b.Payment.RazorpayPaymentID), nullTime(b.Payment.PaidAt),
        string(b.Status), nullString(b.SpecialRequests), nullUint(b.AssignedGuide),
        b.Cancellation.IsCancelled, nullTime(b.Cancellation.CancelledAt), nullString(b.Cancellation.Reason), nullFloat(b.Cancellation.RefundAmount),
        reviews, b.UpdatedAt,
    }, nil
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
    var (
        b                                      model.Booking
        travelers, contact, reviews            []byte
        endDate, paidAt, cancelledAt           sql.NullTime
        method, txnID, orderID, paymentID      sql.NullString
        special, reason                        sql.NullString
        guide                                  sql.NullInt64
        refund                                 sql.NullFloat64
        packagePrice, totalAmount, finalAmount float64
        paymentStatus, status                  string
    )
    err := row.Scan(
        &b.ID, &b.BookingID, &b.UserID, &b.PackageID,
        &travelers, &b.TripDetails.StartDate, &endDate, &b.TripDetails.Duration, &contact,
        &packagePrice, &b.Pricing.ExtraCharges, &b.Pricing.Discount, &b.Pricing.TaxAmount, &totalAmount, &finalAmount,
        &paymentStatus, &method, &txnID, &orderID, &paymentID, &paidAt,
        &status, &special, &guide,
        &b.Cancellation.IsCancelled, &cancelledAt, &reason, &refund,
        &reviews, &b.UpdatedAt, &b.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    if err := json.Unmarshal(travelers, &b.Travelers); err != nil {
        return nil, fmt.Errorf("unmarshal travelers: %w", err)
    }
    if err := json.Unmarshal(contact, &b.ContactInfo); err != nil {
        return nil, fmt.Errorf("unmarshal contact info: %w", err)
    }
    if err := json.Unmarshal(reviews, &b.Reviews); err != nil {
        return nil, fmt.Errorf("unmarshal reviews: %w", err)
    }
    b.TripDetails.EndDate = timePtr(endDate)
    b.Pricing.PackagePrice = &packagePrice
    b.Pricing.TotalAmount = &totalAmount
    b.Pricing.FinalAmount = &finalAmount
    b.Payment = model.Payment{
        Status:            model.PaymentStatus(paymentStatus),
        Method:            model.PaymentMethod(method.String),
        TransactionID:     txnID.String,
        RazorpayOrderID:   orderID.String,
        RazorpayPaymentID: paymentID.String,
        PaidAt:            timePtr(paidAt),
    }
    b.Status = model.BookingStatus(status)
    b.SpecialRequests = special.String
    if guide.Valid {
        g := uint64(guide.Int64)
        b.AssignedGuide = &g
    }
    b.Cancellation.CancelledAt = timePtr(cancelledAt)
    b.Cancellation.Reason = reason.String
    if refund.Valid {
        v := refund.Float64
        b.Cancellation.RefundAmount = &v
    }
    return &b, nil
}

func nonNil[T any](s []T) []T {
    if s == nil {
        return []T{}
    }
    return s
}

func nullString(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
    if t == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: *t, Valid: true}
}

func nullUint(v *uint64) sql.NullInt64 {
    if v == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
    if v == nil {
        return sql.NullFloat64{}
    }
    return sql.NullFloat64{Float64: *v, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
    if !t.Valid {
        return nil
    }
    v := t.Time
    return &v
}
