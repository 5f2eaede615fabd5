package handler

import (
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
    "github.com/iliyamo/kashiyatra-booking/internal/service"
    "github.com/iliyamo/kashiyatra-booking/internal/utils"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
    Bookings *service.BookingService
    Packages service.PackageLookup
    Now      func() time.Time
}

func NewBookingHandler(s *service.BookingService, p service.PackageLookup) *BookingHandler {
    return &BookingHandler{Bookings: s, Packages: p, Now: time.Now}
}

// tripInput accepts dates as YYYY-MM-DD or RFC 3339.
type tripInput struct {
    StartDate string `json:"startDate"`
    EndDate   string `json:"endDate"`
    Duration  *int   `json:"duration"`
}

type createBookingReq struct {
    User            uint64              `json:"user"` // admins only
    Package         uint64              `json:"package"`
    Travelers       []model.Traveler    `json:"travelers"`
    TripDetails     tripInput           `json:"tripDetails"`
    ContactInfo     model.ContactInfo   `json:"contactInfo"`
    Pricing         model.Pricing       `json:"pricing"`
    Payment         *paymentReq         `json:"payment"`
    Status          model.BookingStatus `json:"status"` // admins only
    SpecialRequests string              `json:"specialRequests"`
}

type patchBookingReq struct {
    Travelers       *[]model.Traveler    `json:"travelers"`
    TripDetails     *tripInput           `json:"tripDetails"`
    ContactInfo     *model.ContactInfo   `json:"contactInfo"`
    SpecialRequests *string              `json:"specialRequests"`
    Status          *model.BookingStatus `json:"status"`
    Pricing         *model.Pricing       `json:"pricing"`
}

type paymentReq struct {
    Status            *model.PaymentStatus `json:"status"`
    Method            *model.PaymentMethod `json:"method"`
    TransactionID     *string              `json:"transactionId"`
    RazorpayOrderID   *string              `json:"razorpayOrderId"`
    RazorpayPaymentID *string              `json:"razorpayPaymentId"`
    PaidAt            string               `json:"paidAt"`
}

type cancelReq struct {
    Reason       string   `json:"reason"`
    RefundAmount *float64 `json:"refundAmount"`
}

type reviewReq struct {
    Rating  int    `json:"rating"`
    Comment string `json:"comment"`
}

type guideReq struct {
    GuideID uint64 `json:"guideId"`
}

type statusReq struct {
    Status model.BookingStatus `json:"status"`
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    b := &model.Booking{
        UserID:          req.User,
        PackageID:       req.Package,
        Travelers:       req.Travelers,
        ContactInfo:     req.ContactInfo,
        Pricing:         req.Pricing,
        SpecialRequests: req.SpecialRequests,
    }
    if actor.IsAdmin() {
        b.Status = req.Status
    }
    if err := applyTrip(&b.TripDetails, req.TripDetails); err != nil {
        return writeError(c, err, "")
    }
    if req.Payment != nil && actor.IsAdmin() {
        if err := applyPayment(&b.Payment, *req.Payment); err != nil {
            return writeError(c, err, "")
        }
    }

    res, err := h.Bookings.Create(c.Request().Context(), actor, b)
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    body := echo.Map{"success": true, "data": res.Booking}
    if len(res.Warnings) > 0 {
        body["warnings"] = res.Warnings
    }
    return c.JSON(http.StatusCreated, body)
}

// Mine handles GET /v1/bookings/my.
func (h *BookingHandler) Mine(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    f, err := bookingFilterFrom(c)
    if err != nil {
        return writeError(c, err, "")
    }
    items, total, err := h.Bookings.ListForUser(c.Request().Context(), actor, f)
    if err != nil {
        return writeError(c, err, "")
    }
    return listResponse(c, items, total, f)
}

// List handles GET /v1/admin/bookings and GET /v1/guide/bookings.  What a
// caller sees depends on their role.
func (h *BookingHandler) List(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    f, err := bookingFilterFrom(c)
    if err != nil {
        return writeError(c, err, "")
    }
    items, total, err := h.Bookings.List(c.Request().Context(), actor, f)
    if err != nil {
        return writeError(c, err, "")
    }
    return listResponse(c, items, total, f)
}

// Get handles GET /v1/bookings/:bookingId.
func (h *BookingHandler) Get(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    b, err := h.Bookings.Get(c.Request().Context(), actor, c.Param("bookingId"))
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// Update handles PATCH /v1/bookings/:bookingId.
func (h *BookingHandler) Update(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req patchBookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    p := service.BookingPatch{
        Travelers:       req.Travelers,
        ContactInfo:     req.ContactInfo,
        SpecialRequests: req.SpecialRequests,
        Status:          req.Status,
        Pricing:         req.Pricing,
    }
    if td := req.TripDetails; td != nil {
        p.Duration = td.Duration
        var err error
        if p.StartDate, err = utils.ParseOptionalDate(td.StartDate); err != nil {
            return badRequest(c, "tripDetails.startDate", err.Error())
        }
        if p.EndDate, err = utils.ParseOptionalDate(td.EndDate); err != nil {
            return badRequest(c, "tripDetails.endDate", err.Error())
        }
    }
    b, err := h.Bookings.Update(c.Request().Context(), actor, c.Param("bookingId"), p)
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// UpdatePayment handles POST /v1/bookings/:bookingId/payment.
func (h *BookingHandler) UpdatePayment(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req paymentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    u := service.PaymentUpdate{
        Status:            req.Status,
        Method:            req.Method,
        TransactionID:     req.TransactionID,
        RazorpayOrderID:   req.RazorpayOrderID,
        RazorpayPaymentID: req.RazorpayPaymentID,
    }
    paidAt, err := utils.ParseOptionalDate(req.PaidAt)
    if err != nil {
        return badRequest(c, "payment.paidAt", err.Error())
    }
    u.PaidAt = paidAt
    b, err := h.Bookings.UpdatePayment(c.Request().Context(), actor, c.Param("bookingId"), u)
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// Cancel handles POST /v1/bookings/:bookingId/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req cancelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    b, err := h.Bookings.Cancel(c.Request().Context(), actor, c.Param("bookingId"), req.Reason, req.RefundAmount)
    if errors.Is(err, repository.ErrConflict) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
    }
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// AddReview handles POST /v1/bookings/:bookingId/reviews.
func (h *BookingHandler) AddReview(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req reviewReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    b, err := h.Bookings.AddReview(c.Request().Context(), actor, c.Param("bookingId"), req.Rating, req.Comment)
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": b})
}

// AssignGuide handles PUT /v1/admin/bookings/:bookingId/guide.
func (h *BookingHandler) AssignGuide(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req guideReq
    if err := c.Bind(&req); err != nil || req.GuideID == 0 {
        return badRequest(c, "guideId", "is required")
    }
    b, err := h.Bookings.AssignGuide(c.Request().Context(), actor, c.Param("bookingId"), req.GuideID)
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// SetStatus handles PATCH /v1/admin/bookings/:bookingId/status.
func (h *BookingHandler) SetStatus(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req statusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    b, err := h.Bookings.SetStatus(c.Request().Context(), actor, c.Param("bookingId"), req.Status)
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// Invoice handles GET /v1/bookings/:bookingId/invoice and streams a PDF.
func (h *BookingHandler) Invoice(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    b, err := h.Bookings.Get(ctx, actor, c.Param("bookingId"))
    if err != nil {
        return writeError(c, err, "booking not found")
    }
    var pkgName string
    if h.Packages != nil {
        if p, err := h.Packages.GetByID(ctx, b.PackageID); err == nil {
            pkgName = p.Name
        }
    }
    doc, filename, err := service.RenderInvoice(b, pkgName, h.Now())
    if err != nil {
        return writeError(c, err, "")
    }
    c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
    return c.Blob(http.StatusOK, "application/pdf", doc)
}

// fieldError is a rejected request field, reported as a one-entry
// validation list.
type fieldError struct {
    field string
    msg   string
}

func (e fieldError) Error() string { return e.field + ": " + e.msg }

func applyTrip(td *model.TripDetails, in tripInput) error {
    if in.StartDate != "" {
        t, err := utils.ParseDate(in.StartDate)
        if err != nil {
            return fieldError{"tripDetails.startDate", err.Error()}
        }
        td.StartDate = t
    }
    end, err := utils.ParseOptionalDate(in.EndDate)
    if err != nil {
        return fieldError{"tripDetails.endDate", err.Error()}
    }
    td.EndDate = end
    if in.Duration != nil {
        td.Duration = *in.Duration
    }
    return nil
}

func applyPayment(p *model.Payment, in paymentReq) error {
    if in.Status != nil {
        p.Status = *in.Status
    }
    if in.Method != nil {
        p.Method = *in.Method
    }
    if in.TransactionID != nil {
        p.TransactionID = *in.TransactionID
    }
    if in.RazorpayOrderID != nil {
        p.RazorpayOrderID = *in.RazorpayOrderID
    }
    if in.RazorpayPaymentID != nil {
        p.RazorpayPaymentID = *in.RazorpayPaymentID
    }
    paidAt, err := utils.ParseOptionalDate(in.PaidAt)
    if err != nil {
        return fieldError{"payment.paidAt", err.Error()}
    }
    p.PaidAt = paidAt
    return nil
}

// bookingFilterFrom reads status, paymentStatus, package, user, cancelled,
// from, to, sort, page and limit from the query string.
func bookingFilterFrom(c echo.Context) (repository.BookingFilter, error) {
    page, limit, _ := repository.NormalizePage(queryInt(c, "page"), queryInt(c, "limit"))
    f := repository.BookingFilter{
        Status:        c.QueryParam("status"),
        PaymentStatus: c.QueryParam("paymentStatus"),
        Sort:          c.QueryParam("sort"),
        Page:          page,
        Limit:         limit,
    }
    if f.Status != "" && !model.BookingStatus(f.Status).IsValid() {
        return f, fieldError{"status", "must be one of confirmed, pending, cancelled, completed"}
    }
    if f.PaymentStatus != "" && !model.PaymentStatus(f.PaymentStatus).IsValid() {
        return f, fieldError{"paymentStatus", "must be one of pending, paid, failed, refunded"}
    }
    for name, dst := range map[string]*uint64{"package": &f.PackageID, "user": &f.UserID, "guide": &f.GuideID} {
        if s := c.QueryParam(name); s != "" {
            n, err := strconv.ParseUint(s, 10, 64)
            if err != nil {
                return f, fieldError{name, "must be a numeric id"}
            }
            *dst = n
        }
    }
    if s := c.QueryParam("cancelled"); s != "" {
        v, err := strconv.ParseBool(s)
        if err != nil {
            return f, fieldError{"cancelled", "must be true or false"}
        }
        f.Cancelled = &v
    }
    var err error
    if f.From, err = utils.ParseOptionalDate(c.QueryParam("from")); err != nil {
        return f, fieldError{"from", err.Error()}
    }
    if f.To, err = utils.ParseOptionalDate(c.QueryParam("to")); err != nil {
        return f, fieldError{"to", err.Error()}
    }
    return f, nil
}

func listResponse(c echo.Context, items []model.Booking, total int64, f repository.BookingFilter) error {
    if items == nil {
        items = []model.Booking{}
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "count":      len(items),
        "pagination": pageLinks(f.Page, f.Limit, total),
        "total":      total,
        "data":       items,
    })
}
