package service

import (
    "bytes"
    "fmt"
    "strings"
    "time"

    "github.com/phpdave11/gofpdf"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

// RenderInvoice builds a one page PDF invoice for b.  Amounts are printed
// exactly as stored in the pricing record.  It returns the document and a
// download filename.
func RenderInvoice(b *model.Booking, packageName string, issuedAt time.Time) ([]byte, string, error) {
    pdf := gofpdf.New("P", "mm", "A4", "")
    pdf.SetTitle("Invoice "+b.BookingID, false)
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 18)
    pdf.Cell(0, 10, "KashiYatra - INVOICE")
    pdf.Ln(12)

    pdf.SetFont("Helvetica", "", 12)
    header := []string{
        "Booking ID   : " + b.BookingID,
        "Issued       : " + issuedAt.UTC().Format("2006-01-02 15:04"),
        "Package      : " + safe(packageName, fmt.Sprintf("#%d", b.PackageID)),
        "Trip         : " + tripWindow(b.TripDetails),
        "Status       : " + string(b.Status) + " / payment " + string(b.Payment.Status),
    }
    if b.Cancellation.IsCancelled {
        header = append(header, "Cancelled    : "+safe(b.Cancellation.Reason, "yes"))
    }
    for _, s := range header {
        pdf.Cell(0, 7, s)
        pdf.Ln(7)
    }
    pdf.Ln(4)

    pdf.SetFont("Helvetica", "B", 12)
    pdf.Cell(0, 7, "Billed to:")
    pdf.Ln(7)
    pdf.SetFont("Helvetica", "", 12)
    pdf.Cell(0, 7, fmt.Sprintf("%s  %s", safe(b.ContactInfo.Email, "-"), safe(b.ContactInfo.Phone, "-")))
    pdf.Ln(10)

    pdf.SetFont("Helvetica", "B", 12)
    pdf.Cell(0, 7, fmt.Sprintf("Travelers (%d):", len(b.Travelers)))
    pdf.Ln(8)
    pdf.SetFont("Helvetica", "", 11)
    for i, t := range b.Travelers {
        line := fmt.Sprintf("%d) %s", i+1, safe(t.Name, "-"))
        if t.Age != nil {
            line += fmt.Sprintf(", %d", *t.Age)
        }
        if t.Gender != "" {
            line += ", " + string(t.Gender)
        }
        pdf.Cell(0, 6, line)
        pdf.Ln(6)
    }
    pdf.Ln(4)

    p := b.Pricing
    rows := [][2]string{
        {"Package price", formatINR(model.Amount(p.PackagePrice))},
        {"Extra charges", formatINR(p.ExtraCharges)},
        {"Discount", "-" + formatINR(p.Discount)},
        {"Tax", formatINR(p.TaxAmount)},
        {"Total", formatINR(model.Amount(p.TotalAmount))},
    }
    for _, r := range rows {
        pdf.CellFormat(60, 7, r[0], "", 0, "L", false, 0, "")
        pdf.CellFormat(50, 7, r[1], "", 1, "R", false, 0, "")
    }
    pdf.SetFont("Helvetica", "B", 12)
    pdf.CellFormat(60, 8, "Amount payable", "T", 0, "L", false, 0, "")
    pdf.CellFormat(50, 8, formatINR(model.Amount(p.FinalAmount)), "T", 1, "R", false, 0, "")

    if b.Payment.PaidAt != nil {
        pdf.Ln(4)
        pdf.SetFont("Helvetica", "I", 10)
        pdf.Cell(0, 6, fmt.Sprintf("Paid on %s via %s %s", b.Payment.PaidAt.UTC().Format("2006-01-02"),
            safe(string(b.Payment.Method), "-"), b.Payment.TransactionID))
    }

    var buf bytes.Buffer
    if err := pdf.Output(&buf); err != nil {
        return nil, "", err
    }
    return buf.Bytes(), "INVOICE_" + safeFilenamePart(b.BookingID) + ".pdf", nil
}

func tripWindow(td model.TripDetails) string {
    s := td.StartDate.Format("2006-01-02")
    if td.EndDate != nil {
        s += " to " + td.EndDate.Format("2006-01-02")
    }
    return fmt.Sprintf("%s (%d days)", s, td.Duration)
}

func safe(v, fallback string) string {
    v = strings.TrimSpace(v)
    if v == "" {
        return fallback
    }
    return v
}

func safeFilenamePart(s string) string {
    s = strings.TrimSpace(s)
    if s == "" {
        return "NA"
    }
    replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
    return replacer.Replace(s)
}

// formatINR renders an amount with Indian digit grouping, e.g. 1234567.5
// becomes "Rs 12,34,567.50".  The core PDF fonts have no rupee glyph.
func formatINR(v float64) string {
    neg := v < 0
    if neg {
        v = -v
    }
    s := fmt.Sprintf("%.2f", v)
    intPart, frac := s[:len(s)-3], s[len(s)-2:]
    var out string
    if len(intPart) <= 3 {
        out = intPart
    } else {
        head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
        var groups []string
        for len(head) > 2 {
            groups = append([]string{head[len(head)-2:]}, groups...)
            head = head[:len(head)-2]
        }
        if head != "" {
            groups = append([]string{head}, groups...)
        }
        out = strings.Join(groups, ",") + "," + tail
    }
    if neg {
        out = "-" + out
    }
    return "Rs " + out + "." + frac
}
