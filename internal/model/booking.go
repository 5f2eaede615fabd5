package model

import "time"

// BookingStatus is the lifecycle state of a booking.  It is set by the
// caller and is not coupled to the payment status or the cancellation
// record.
type BookingStatus string

const (
    BookingConfirmed BookingStatus = "confirmed"
    BookingPending   BookingStatus = "pending"
    BookingCancelled BookingStatus = "cancelled"
    BookingCompleted BookingStatus = "completed"
)

// IsValid reports whether s is one of the four known booking states.
func (s BookingStatus) IsValid() bool {
    switch s {
    case BookingConfirmed, BookingPending, BookingCancelled, BookingCompleted:
        return true
    }
    return false
}

// PaymentStatus is the state of the payment attached to a booking.
type PaymentStatus string

const (
    PaymentPending  PaymentStatus = "pending"
    PaymentPaid     PaymentStatus = "paid"
    PaymentFailed   PaymentStatus = "failed"
    PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
    switch s {
    case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
        return true
    }
    return false
}

// PaymentMethod lists the accepted payment instruments.
type PaymentMethod string

const (
    MethodCreditCard PaymentMethod = "credit_card"
    MethodDebitCard  PaymentMethod = "debit_card"
    MethodUPI        PaymentMethod = "upi"
    MethodNetbanking PaymentMethod = "netbanking"
    MethodWallet     PaymentMethod = "wallet"
)

type Gender string

const (
    GenderMale   Gender = "male"
    GenderFemale Gender = "female"
    GenderOther  Gender = "other"
)

// IDProof is the kind of identity document a traveler presents.
type IDProof string

const (
    ProofAadhar         IDProof = "aadhar"
    ProofPassport       IDProof = "passport"
    ProofDrivingLicense IDProof = "driving_license"
    ProofVoterID        IDProof = "voter_id"
)

// Booking is a traveler's reservation against a Package.  It is stored as a
// single document: scalar fields live in indexed columns and the nested
// records (travelers, contact info, reviews) are kept as JSON.
//
// Fields:
//  ID            – surrogate primary key of the row.
//  BookingID     – public identifier (KY<millis><sequence>), assigned once.
//  UserID        – user who owns the booking.
//  PackageID     – package being booked.
//  TripDetails   – start date, duration in days and end date.
//  Pricing       – caller supplied amounts; never recomputed.
//  Payment       – payment state; independent of Status.
//  Cancellation  – soft cancellation record; independent of Status.
//  AssignedGuide – user ID of the guide, nil until assigned.
type Booking struct {
    ID              uint64        `json:"id"`
    BookingID       string        `json:"bookingId"`
    UserID          uint64        `json:"user" validate:"required"`
    PackageID       uint64        `json:"package" validate:"required"`
    Travelers       []Traveler    `json:"travelers" validate:"dive"`
    TripDetails     TripDetails   `json:"tripDetails"`
    ContactInfo     ContactInfo   `json:"contactInfo"`
    Pricing         Pricing       `json:"pricing"`
    Payment         Payment       `json:"payment"`
    Status          BookingStatus `json:"status" validate:"oneof=confirmed pending cancelled completed"`
    SpecialRequests string        `json:"specialRequests,omitempty"`
    AssignedGuide   *uint64       `json:"assignedGuide,omitempty"`
    Cancellation    Cancellation  `json:"cancellation"`
    Reviews         []Review      `json:"reviews" validate:"dive"`
    CreatedAt       time.Time     `json:"createdAt"`
    UpdatedAt       time.Time     `json:"updatedAt"`
}

// Traveler holds one person's identity details attached to a booking.
type Traveler struct {
    Name     string  `json:"name" validate:"required"`
    Age      *int    `json:"age,omitempty" validate:"omitempty,min=0,max=130"`
    Gender   Gender  `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
    IDProof  IDProof `json:"idProof,omitempty" validate:"omitempty,oneof=aadhar passport driving_license voter_id"`
    IDNumber string  `json:"idNumber,omitempty"`
}

// TripDetails carries the travel window.  EndDate is derived from StartDate
// and Duration when the booking is created without one.
type TripDetails struct {
    StartDate time.Time  `json:"startDate"`
    EndDate   *time.Time `json:"endDate,omitempty"`
    Duration  int        `json:"duration" validate:"min=1"`
}

type ContactInfo struct {
    Email            string           `json:"email" validate:"required,email"`
    Phone            string           `json:"phone" validate:"required"`
    EmergencyContact EmergencyContact `json:"emergencyContact"`
}

type EmergencyContact struct {
    Name     string `json:"name,omitempty"`
    Phone    string `json:"phone,omitempty"`
    Relation string `json:"relation,omitempty"`
}

// Payment is the payment sub-record of a booking.  Gateway identifiers are
// stored as given.
type Payment struct {
    Status            PaymentStatus `json:"status" validate:"oneof=pending paid failed refunded"`
    Method            PaymentMethod `json:"method,omitempty" validate:"omitempty,oneof=credit_card debit_card upi netbanking wallet"`
    TransactionID     string        `json:"transactionId,omitempty"`
    RazorpayOrderID   string        `json:"razorpayOrderId,omitempty"`
    RazorpayPaymentID string        `json:"razorpayPaymentId,omitempty"`
    PaidAt            *time.Time    `json:"paidAt,omitempty"`
}

// Cancellation records a soft cancellation.  Setting IsCancelled does not
// touch Booking.Status or Payment.Status.
type Cancellation struct {
    IsCancelled  bool       `json:"isCancelled"`
    CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
    Reason       string     `json:"reason,omitempty"`
    RefundAmount *float64   `json:"refundAmount,omitempty" validate:"omitempty,min=0"`
}

type Review struct {
    Rating    int       `json:"rating" validate:"min=1,max=5"`
    Comment   string    `json:"comment,omitempty"`
    CreatedAt time.Time `json:"createdAt"`
}

// ApplyDefaults fills the fields that default on creation.  Zero-valued
// amounts (extraCharges, discount, taxAmount) already mean 0.
func (b *Booking) ApplyDefaults(now time.Time) {
    if b.Status == "" {
        b.Status = BookingPending
    }
    if b.Payment.Status == "" {
        b.Payment.Status = PaymentPending
    }
    if b.Travelers == nil {
        b.Travelers = []Traveler{}
    }
    if b.Reviews == nil {
        b.Reviews = []Review{}
    }
    for i := range b.Reviews {
        if b.Reviews[i].CreatedAt.IsZero() {
            b.Reviews[i].CreatedAt = now
        }
    }
}

// DeriveEndDate sets TripDetails.EndDate to StartDate plus Duration days when
// no end date was supplied.  An explicit end date is left untouched.  Day
// arithmetic uses AddDate so month and year boundaries roll over correctly.
func (b *Booking) DeriveEndDate() {
    td := &b.TripDetails
    if td.EndDate != nil || td.StartDate.IsZero() || td.Duration <= 0 {
        return
    }
    end := td.StartDate.AddDate(0, 0, td.Duration)
    td.EndDate = &end
}

// Validate runs the field rules for a booking and returns every violation
// found as ValidationErrors, or nil when the booking is acceptable.
func (b *Booking) Validate() error {
    errs := checkStruct(b)
    if b.TripDetails.StartDate.IsZero() {
        errs.Add("tripDetails.startDate", "required", ruleMessage("required", ""))
    }
    b.Pricing.checkAmounts(&errs)
    checkAmount(&errs, "cancellation.refundAmount", b.Cancellation.RefundAmount)
    return errs.OrNil()
}

// IsOwnedBy reports whether userID owns the booking.
func (b *Booking) IsOwnedBy(userID uint64) bool { return b.UserID == userID }

// IsAssignedTo reports whether guideID is the booking's assigned guide.
func (b *Booking) IsAssignedTo(guideID uint64) bool {
    return b.AssignedGuide != nil && *b.AssignedGuide == guideID
}
