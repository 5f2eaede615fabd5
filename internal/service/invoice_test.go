package service

import (
    "bytes"
    "testing"
    "time"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

func TestRenderInvoice(t *testing.T) {
    b := newBooking()
    b.BookingID = "KY17041878000001"
    b.ApplyDefaults(clock)
    b.DeriveEndDate()
    paid := clock.Add(time.Hour)
    b.Payment = model.Payment{Status: model.PaymentPaid, Method: model.MethodUPI, TransactionID: "txn_9", PaidAt: &paid}

    doc, name, err := RenderInvoice(b, "Kashi Darshan", clock)
    if err != nil {
        t.Fatalf("render: %v", err)
    }
    if !bytes.HasPrefix(doc, []byte("%PDF")) {
        t.Fatalf("output is not a PDF: %q", doc[:min(len(doc), 8)])
    }
    if name != "INVOICE_KY17041878000001.pdf" {
        t.Fatalf("filename = %q", name)
    }
}

func TestRenderInvoiceCancelledWithoutPackageName(t *testing.T) {
    b := newBooking()
    b.BookingID = "KY/odd id"
    b.Cancellation = model.Cancellation{IsCancelled: true}
    b.Pricing = model.Pricing{}

    doc, name, err := RenderInvoice(b, "", clock)
    if err != nil {
        t.Fatalf("render: %v", err)
    }
    if len(doc) == 0 {
        t.Fatalf("empty document")
    }
    if name != "INVOICE_KY_odd_id.pdf" {
        t.Fatalf("filename = %q", name)
    }
}

func TestFormatINR(t *testing.T) {
    cases := map[float64]string{
        0:         "Rs 0.00",
        999:       "Rs 999.00",
        1000:      "Rs 1,000.00",
        21550:     "Rs 21,550.00",
        123456.5:  "Rs 1,23,456.50",
        1234567.5: "Rs 12,34,567.50",
        -2500:     "Rs -2,500.00",
    }
    for in, want := range cases {
        if got := formatINR(in); got != want {
            t.Fatalf("formatINR(%v) = %q, want %q", in, got, want)
        }
    }
}
