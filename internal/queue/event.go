// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

// Exchange is the topic exchange booking events are published to.  The
// routing key of each message is its event type.
const Exchange = "booking.events"

// Event types.
const (
    BookingCreated   = "booking.created"
    BookingConfirmed = "booking.confirmed"
    BookingCancelled = "booking.cancelled"
)

// BookingEvent is published on every lifecycle change that downstream
// consumers care about.  It carries enough information to log, notify or
// feed analytics without querying the primary database.
type BookingEvent struct {
    EventID       string    `json:"event_id"`
    Type          string    `json:"type"`
    BookingID     string    `json:"booking_id"`
    UserID        uint64    `json:"user_id"`
    PackageID     uint64    `json:"package_id"`
    Status        string    `json:"status"`
    PaymentStatus string    `json:"payment_status"`
    IsCancelled   bool      `json:"is_cancelled"`
    FinalAmount   float64   `json:"final_amount"`
    StartDate     string    `json:"start_date"`
    EndDate       string    `json:"end_date,omitempty"`
    OccurredAt    time.Time `json:"occurred_at"`
}

// NewBookingEvent snapshots b into an event of the given type.
func NewBookingEvent(eventType string, b *model.Booking, at time.Time) BookingEvent {
    ev := BookingEvent{
        EventID:       uuid.NewString(),
        Type:          eventType,
        BookingID:     b.BookingID,
        UserID:        b.UserID,
        PackageID:     b.PackageID,
        Status:        string(b.Status),
        PaymentStatus: string(b.Payment.Status),
        IsCancelled:   b.Cancellation.IsCancelled,
        FinalAmount:   model.Amount(b.Pricing.FinalAmount),
        StartDate:     b.TripDetails.StartDate.Format("2006-01-02"),
        OccurredAt:    at.UTC(),
    }
    if b.TripDetails.EndDate != nil {
        ev.EndDate = b.TripDetails.EndDate.Format("2006-01-02")
    }
    return ev
}
