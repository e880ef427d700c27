package render

import (
	"bytes"
	"fmt"

	"oeo-pos/internal/domain"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 80.0
	margin       = 4.0
	contentWidth = pageWidth - 2*margin
	lineHeight   = 5.0
	currency     = "NGN"
	footer       = "Thank you for your patronage!"
)

// Renderer turns a receipt into a printable document
type Renderer interface {
	Render(receipt *domain.Receipt) ([]byte, error)
}

// PDF renders receipts on an 80mm thermal roll
type PDF struct{}

func (PDF) Render(receipt *domain.Receipt) ([]byte, error) {
	return Render(receipt)
}

// Render lays out receipt as a single page PDF. The output only depends on
// the receipt, including the embedded creation date.
func Render(receipt *domain.Receipt) ([]byte, error) {
	if err := check(receipt); err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight(receipt)},
	})
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(receipt.IssuedAt)
	pdf.SetModificationDate(receipt.IssuedAt)
	pdf.SetTitle("Receipt "+receipt.ReceiptID, true)
	pdf.SetCreator("oeo-pos", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 7, tr(receipt.TenantID.DisplayName()), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentWidth, lineHeight, tr("Receipt: "+receipt.ReceiptID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, "Date: "+receipt.IssuedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	rule(pdf)

	for _, item := range receipt.Items {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.MultiCell(contentWidth, lineHeight, tr(item.Name), "", "L", false)
		pdf.SetFont("Helvetica", "", 8)
		detail := fmt.Sprintf("%d x %s", item.Quantity, money(item.Price.StringFixed(2)))
		pdf.CellFormat(contentWidth/2, lineHeight, detail, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth/2, lineHeight, money(item.Subtotal.StringFixed(2)), "", 1, "R", false, 0, "")
	}
	rule(pdf)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentWidth/2, 6, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth/2, 6, money(receipt.Total.StringFixed(2)), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentWidth, lineHeight, "Payment: "+string(receipt.PaymentMethod), "", 1, "L", false, 0, "")
	if receipt.CustomerName != "" {
		pdf.CellFormat(contentWidth, lineHeight, tr("Customer: "+receipt.CustomerName), "", 1, "L", false, 0, "")
	}
	if receipt.CustomerPhone != "" {
		pdf.CellFormat(contentWidth, lineHeight, tr("Phone: "+receipt.CustomerPhone), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentWidth, lineHeight, tr("Cashier: "+receipt.Cashier), "", 1, "L", false, 0, "")
	rule(pdf)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentWidth, 6, footer, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

func check(receipt *domain.Receipt) error {
	switch {
	case receipt == nil:
		return fmt.Errorf("%w: receipt is nil", domain.ErrRenderFailure)
	case receipt.ReceiptID == "":
		return fmt.Errorf("%w: receipt id is empty", domain.ErrRenderFailure)
	case receipt.IssuedAt.IsZero():
		return fmt.Errorf("%w: receipt %s has no issue date", domain.ErrRenderFailure, receipt.ReceiptID)
	case len(receipt.Items) == 0:
		return fmt.Errorf("%w: receipt %s has no items", domain.ErrRenderFailure, receipt.ReceiptID)
	case receipt.Total.IsNegative():
		return fmt.Errorf("%w: receipt %s has a negative total", domain.ErrRenderFailure, receipt.ReceiptID)
	}
	return nil
}

// pageHeight grows the roll with the number of lines; item names may wrap once
func pageHeight(receipt *domain.Receipt) float64 {
	return 70 + float64(len(receipt.Items))*3*lineHeight
}

func rule(pdf *fpdf.Fpdf) {
	y := pdf.GetY() + 1
	pdf.Line(margin, y, pageWidth-margin, y)
	pdf.SetY(y + 1)
}

func money(amount string) string {
	return currency + " " + amount
}
