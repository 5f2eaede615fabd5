package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
    q "github.com/iliyamo/kashiyatra-booking/internal/queue"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
)

// maxIDAttempts bounds how often Create regenerates an identifier after the
// unique index rejected one.
const maxIDAttempts = 3

// BookingStore is the persistence the lifecycle needs.  Update must apply
// fn and write the result atomically with respect to other updates of the
// same booking.
type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByBookingID(ctx context.Context, bookingID string) (*model.Booking, error)
    Update(ctx context.Context, bookingID string, fn func(*model.Booking) error) (*model.Booking, error)
    List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, int64, error)
}

type PackageLookup interface {
    GetByID(ctx context.Context, id uint64) (*model.Package, error)
}

type UserLookup interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Actor is the authenticated caller.
type Actor struct {
    UserID uint64
    Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// BookingService implements the booking lifecycle: creation with
// identifier assignment and end date derivation, payment updates, guide
// assignment, soft cancellation and reviews.  Bookings are never deleted.
type BookingService struct {
    Bookings BookingStore
    Packages PackageLookup
    Users    UserLookup
    IDs      *IDGenerator
    Events   EventPublisher // optional
    Now      func() time.Time
}

// CreateResult is the created booking plus any pricing warnings.  Warnings
// flag caller totals that do not add up; the totals are stored as given.
type CreateResult struct {
    Booking  *model.Booking
    Warnings []string
}

// BookingPatch lists the editable fields of a booking.  Nil means "leave
// unchanged".  Editing the start date or duration does not recompute the
// end date.
type BookingPatch struct {
    Travelers       *[]model.Traveler
    StartDate       *time.Time
    Duration        *int
    EndDate         *time.Time
    ContactInfo     *model.ContactInfo
    SpecialRequests *string
    Status          *model.BookingStatus // admin only
    Pricing         *model.Pricing       // admin only
}

// PaymentUpdate carries the payment fields a caller may set.
type PaymentUpdate struct {
    Status            *model.PaymentStatus
    Method            *model.PaymentMethod
    TransactionID     *string
    RazorpayOrderID   *string
    RazorpayPaymentID *string
    PaidAt            *time.Time
}

func (s *BookingService) now() time.Time {
    now := time.Now
    if s.Now != nil {
        now = s.Now
    }
    // Stored timestamps keep millisecond precision.
    return now().UTC().Truncate(time.Millisecond)
}

// Create validates and persists a new booking owned by the actor.  Admins
// may create on behalf of another user by setting UserID, and may seed the
// status and payment state; for everyone else both start out pending.  A
// booking created as paid gets paidAt stamped and publishes
// booking.confirmed after booking.created.  A booking that arrives with a
// BookingID keeps it; otherwise one is generated, and regenerated if the
// store reports a duplicate.
func (s *BookingService) Create(ctx context.Context, actor Actor, b *model.Booking) (*CreateResult, error) {
    if b.UserID == 0 || !actor.IsAdmin() {
        b.UserID = actor.UserID
    }
    if !actor.IsAdmin() {
        b.Status = model.BookingPending
        b.Payment = model.Payment{Status: model.PaymentPending}
    }
    now := s.now()
    paid := b.Payment.Status == model.PaymentPaid
    if paid && b.Payment.PaidAt == nil {
        b.Payment.PaidAt = &now
    }
    b.ID = 0
    b.AssignedGuide = nil
    b.Cancellation = model.Cancellation{}
    b.Reviews = nil
    b.CreatedAt, b.UpdatedAt = now, now
    b.ApplyDefaults(now)
    b.DeriveEndDate()
    if err := b.Validate(); err != nil {
        return nil, err
    }
    if err := s.checkPackage(ctx, b); err != nil {
        return nil, err
    }

    warnings := b.Pricing.Divergence()
    for _, w := range warnings {
        log.Printf("booking: pricing divergence user_id=%d package_id=%d: %s", b.UserID, b.PackageID, w)
    }

    generated := b.BookingID == ""
    for attempt := 1; ; attempt++ {
        if generated {
            id, err := s.IDs.Generate(ctx)
            if err != nil {
                return nil, err
            }
            b.BookingID = id
        }
        err := s.Bookings.Create(ctx, b)
        if err == nil {
            break
        }
        if !generated || !errors.Is(err, repository.ErrDuplicateBookingID) || attempt >= maxIDAttempts {
            return nil, err
        }
        log.Printf("booking: id %s already taken, retrying (attempt %d)", b.BookingID, attempt)
    }

    s.publish(ctx, q.BookingCreated, b)
    if paid {
        s.publish(ctx, q.BookingConfirmed, b)
    }
    return &CreateResult{Booking: b, Warnings: warnings}, nil
}

// checkPackage rejects bookings against missing or inactive packages and
// traveler counts above the package cap.
func (s *BookingService) checkPackage(ctx context.Context, b *model.Booking) error {
    return s.checkPackageRules(ctx, b, true)
}

// checkPackageRules loads b's package and reports violations.  Edits of an
// existing booking pass requireActive=false so bookings on a retired
// package stay editable, but the traveler cap still applies.
func (s *BookingService) checkPackageRules(ctx context.Context, b *model.Booking, requireActive bool) error {
    if s.Packages == nil {
        return nil
    }
    var errs model.ValidationErrors
    pkg, err := s.Packages.GetByID(ctx, b.PackageID)
    if errors.Is(err, repository.ErrNotFound) {
        errs.Add("package", "exists", "does not exist")
        return errs
    }
    if err != nil {
        return err
    }
    if requireActive && !pkg.IsActive {
        errs.Add("package", "active", "is not available for booking")
    }
    if pkg.MaxTravelers > 0 && len(b.Travelers) > pkg.MaxTravelers {
        errs.Add("travelers", "max", fmt.Sprintf("must be at most %d", pkg.MaxTravelers))
    }
    return errs.OrNil()
}

// canView reports whether actor may read b.
func canView(actor Actor, b *model.Booking) bool {
    switch actor.Role {
    case model.RoleAdmin:
        return true
    case model.RoleGuide:
        return b.IsAssignedTo(actor.UserID) || b.IsOwnedBy(actor.UserID)
    }
    return b.IsOwnedBy(actor.UserID)
}

// canEdit reports whether actor may change b.
func canEdit(actor Actor, b *model.Booking) bool {
    return actor.IsAdmin() || b.IsOwnedBy(actor.UserID)
}

// Get returns a booking the actor may see.
func (s *BookingService) Get(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
    b, err := s.Bookings.GetByBookingID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if !canView(actor, b) {
        return nil, repository.ErrForbidden
    }
    return b, nil
}

// List returns the page of bookings visible to the actor.  Customers only
// see their own bookings and guides only those assigned to them; admins
// may filter freely.
func (s *BookingService) List(ctx context.Context, actor Actor, f repository.BookingFilter) ([]model.Booking, int64, error) {
    switch actor.Role {
    case model.RoleAdmin:
    case model.RoleGuide:
        f.UserID = 0
        f.GuideID = actor.UserID
    default:
        f.UserID = actor.UserID
        f.GuideID = 0
    }
    return s.Bookings.List(ctx, f)
}

// ListForUser returns the actor's own bookings, newest first by default.
func (s *BookingService) ListForUser(ctx context.Context, actor Actor, f repository.BookingFilter) ([]model.Booking, int64, error) {
    f.UserID = actor.UserID
    f.GuideID = 0
    return s.Bookings.List(ctx, f)
}

// mutate runs fn under the store's row lock after the edit permission
// check, stamps UpdatedAt and re-validates the result.
func (s *BookingService) mutate(ctx context.Context, actor Actor, bookingID string, fn func(*model.Booking) error) (*model.Booking, error) {
    return s.Bookings.Update(ctx, bookingID, func(b *model.Booking) error {
        if !canEdit(actor, b) {
            return repository.ErrForbidden
        }
        if err := fn(b); err != nil {
            return err
        }
        b.UpdatedAt = s.now()
        return b.Validate()
    })
}

// Update applies a patch.  Status and pricing edits are reserved to
// admins; no transition rules apply to status.
func (s *BookingService) Update(ctx context.Context, actor Actor, bookingID string, p BookingPatch) (*model.Booking, error) {
    if (p.Status != nil || p.Pricing != nil) && !actor.IsAdmin() {
        return nil, repository.ErrForbidden
    }
    return s.mutate(ctx, actor, bookingID, func(b *model.Booking) error {
        if p.Travelers != nil {
            b.Travelers = *p.Travelers
            if err := s.checkPackageRules(ctx, b, false); err != nil {
                return err
            }
        }
        if p.StartDate != nil {
            b.TripDetails.StartDate = *p.StartDate
        }
        if p.Duration != nil {
            b.TripDetails.Duration = *p.Duration
        }
        if p.EndDate != nil {
            end := *p.EndDate
            b.TripDetails.EndDate = &end
        }
        if p.ContactInfo != nil {
            b.ContactInfo = *p.ContactInfo
        }
        if p.SpecialRequests != nil {
            b.SpecialRequests = *p.SpecialRequests
        }
        if p.Status != nil {
            b.Status = *p.Status
        }
        if p.Pricing != nil {
            b.Pricing = *p.Pricing
            for _, w := range b.Pricing.Divergence() {
                log.Printf("booking: pricing divergence booking_id=%s: %s", b.BookingID, w)
            }
        }
        return nil
    })
}

// SetStatus sets the booking status to any of the known values.
func (s *BookingService) SetStatus(ctx context.Context, actor Actor, bookingID string, status model.BookingStatus) (*model.Booking, error) {
    return s.Update(ctx, actor, bookingID, BookingPatch{Status: &status})
}

// UpdatePayment records payment details.  The booking status is left
// alone.  When the payment becomes paid without an explicit paidAt the
// current time is used, and a booking.confirmed event is published.
func (s *BookingService) UpdatePayment(ctx context.Context, actor Actor, bookingID string, u PaymentUpdate) (*model.Booking, error) {
    becamePaid := false
    b, err := s.mutate(ctx, actor, bookingID, func(b *model.Booking) error {
        before := b.Payment.Status
        pay := &b.Payment
        if u.Status != nil {
            pay.Status = *u.Status
        }
        if u.Method != nil {
            pay.Method = *u.Method
        }
        if u.TransactionID != nil {
            pay.TransactionID = *u.TransactionID
        }
        if u.RazorpayOrderID != nil {
            pay.RazorpayOrderID = *u.RazorpayOrderID
        }
        if u.RazorpayPaymentID != nil {
            pay.RazorpayPaymentID = *u.RazorpayPaymentID
        }
        if u.PaidAt != nil {
            t := u.PaidAt.UTC()
            pay.PaidAt = &t
        }
        becamePaid = before != model.PaymentPaid && pay.Status == model.PaymentPaid
        if becamePaid && pay.PaidAt == nil {
            t := s.now()
            pay.PaidAt = &t
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    if becamePaid {
        s.publish(ctx, q.BookingConfirmed, b)
    }
    return b, nil
}

// AssignGuide sets the booking's guide.  The user must hold the GUIDE role.
func (s *BookingService) AssignGuide(ctx context.Context, actor Actor, bookingID string, guideID uint64) (*model.Booking, error) {
    if !actor.IsAdmin() {
        return nil, repository.ErrForbidden
    }
    var errs model.ValidationErrors
    u, err := s.Users.GetByID(ctx, guideID)
    switch {
    case errors.Is(err, repository.ErrNotFound):
        errs.Add("guideId", "exists", "does not exist")
        return nil, errs
    case err != nil:
        return nil, err
    case u.Role != model.RoleGuide:
        errs.Add("guideId", "role", "must belong to a GUIDE user")
        return nil, errs
    }
    return s.mutate(ctx, actor, bookingID, func(b *model.Booking) error {
        g := guideID
        b.AssignedGuide = &g
        return nil
    })
}

// Cancel records a soft cancellation.  Status and payment status are not
// changed.  A refund amount can only be set by an admin.  Cancelling an
// already cancelled booking returns ErrConflict.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, bookingID, reason string, refund *float64) (*model.Booking, error) {
    if refund != nil && !actor.IsAdmin() {
        return nil, repository.ErrForbidden
    }
    b, err := s.mutate(ctx, actor, bookingID, func(b *model.Booking) error {
        if b.Cancellation.IsCancelled {
            return repository.ErrConflict
        }
        now := s.now()
        b.Cancellation = model.Cancellation{
            IsCancelled:  true,
            CancelledAt:  &now,
            Reason:       reason,
            RefundAmount: refund,
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    s.publish(ctx, q.BookingCancelled, b)
    return b, nil
}

// AddReview appends a review from the booking owner.
func (s *BookingService) AddReview(ctx context.Context, actor Actor, bookingID string, rating int, comment string) (*model.Booking, error) {
    if rating < 1 || rating > 5 {
        var errs model.ValidationErrors
        errs.Add("rating", "range", "must be between 1 and 5")
        return nil, errs
    }
    return s.Bookings.Update(ctx, bookingID, func(b *model.Booking) error {
        if !b.IsOwnedBy(actor.UserID) {
            return repository.ErrForbidden
        }
        now := s.now()
        b.Reviews = append(b.Reviews, model.Review{Rating: rating, Comment: comment, CreatedAt: now})
        b.UpdatedAt = now
        return b.Validate()
    })
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *model.Booking) {
    if s.Events == nil {
        return
    }
    ev := q.NewBookingEvent(eventType, b, s.now())
    if err := s.Events.Publish(ctx, ev); err != nil {
        log.Printf("booking: publish %s for %s failed: %v", eventType, b.BookingID, err)
    }
}
