package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Receipt copy titles.
const (
	TitleConstancia           = "- CONSTANCIA -"
	TitleConstanciaGraduacion = "- CONSTANCIA PAGO GRADUACIÓN -"
	TitleCopiaContribuyente   = "- COPIA CONTRIBUYENTE -"
)

const (
	copyHeight   = 120.0
	headerHeight = 25.0
)

// LateFeeNote is printed under a monthly detail that carries a late fee.
const LateFeeNote = "* Se aplicó mora por pago después del día 5 del mes."

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Receipt is everything printed on a payment receipt.
type Receipt struct {
	FirstTitle    string
	Number        string
	Date          time.Time
	StudentName   string
	GradeLabel    string
	Grade         string
	Shift         string
	Modality      string
	PaymentMethod string
	Section       string
	Concept       string

	// Monthly switches the detail table to Concepto/Mes/Monto/Mora/Total.
	Monthly bool
	Month   string
	Amount  decimal.Decimal
	Mora    decimal.Decimal

	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	Paid       decimal.Decimal
	Pending    decimal.Decimal
	IsAbono    bool
}

// ReceiptRenderer draws two-copy letter-size receipts.
type ReceiptRenderer struct {
	schoolName string
	address    string
}

// NewReceiptRenderer constructs a renderer for the given institution header.
func NewReceiptRenderer(schoolName, address string) *ReceiptRenderer {
	return &ReceiptRenderer{schoolName: schoolName, address: address}
}

// Render returns the PDF bytes. The top copy is the constancia and the bottom
// one the taxpayer copy.
func (r *ReceiptRenderer) Render(rc Receipt) ([]byte, error) {
	if rc.Number == "" {
		return nil, fmt.Errorf("receipt requires a number")
	}
	if rc.Date.IsZero() {
		rc.Date = time.Now()
	}
	if rc.FirstTitle == "" {
		rc.FirstTitle = TitleConstancia
	}
	if rc.GradeLabel == "" {
		rc.GradeLabel = "Grado"
	}
	if rc.Section == "" {
		rc.Section = "DETALLE DEL PAGO:"
	}

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r.drawCopy(pdf, tr, rc, 10, rc.FirstTitle)
	r.drawCopy(pdf, tr, rc, 140, TitleCopiaContribuyente)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *ReceiptRenderer) drawCopy(pdf *gofpdf.Fpdf, tr func(string) string, rc Receipt, top float64, title string) {
	width, _ := pdf.GetPageSize()
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetLineWidth(0.5)
	pdf.Rect(10, top, width-20, copyHeight, "D")
	pdf.SetLineWidth(1)
	pdf.Rect(10, top, width-20, headerHeight, "D")
	pdf.SetLineWidth(0.2)

	pdf.SetFont("Helvetica", "B", 16)
	centered(pdf, tr(r.schoolName), width/2, top+10)
	pdf.SetFont("Helvetica", "", 10)
	centered(pdf, tr(r.address), width/2, top+17)
	centered(pdf, tr(title), width/2, top+23)

	y := top + 35
	pdf.Rect(15, y-5, width-30, 12, "D")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(20, y+2, tr("RECIBO No: "+rc.Number))
	pdf.Text(width-80, y+2, tr("Fecha: "+FormatLongDate(rc.Date)))
	y += 18

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(20, y, "DATOS DEL ESTUDIANTE:")
	y += 8
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, y, tr("Nombre: "+rc.StudentName))
	y += 6
	pdf.Text(20, y, tr(rc.GradeLabel+": "+orNA(rc.Grade)))
	pdf.Text(100, y, tr("Jornada: "+orNA(rc.Shift)))
	y += 6
	pdf.Text(20, y, tr("Modalidad: "+orNA(rc.Modality)))
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(100, y, tr("Forma de Pago: "+orNA(rc.PaymentMethod)))
	y += 12

	pdf.Text(20, y, tr(rc.Section))
	y += 8
	pdf.Line(20, y, width-20, y)
	y += 6

	pdf.SetFont("Helvetica", "", 10)
	if rc.Monthly {
		r.drawMonthlyDetail(pdf, tr, rc, y, width)
	} else {
		r.drawBalanceDetail(pdf, tr, rc, y, width)
	}

	y = top + 95
	pdf.SetDashPattern([]float64{2, 2}, 0)
	pdf.Rect(width-70, y, 50, 20, "D")
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetFont("Helvetica", "I", 8)
	centered(pdf, "Sello", width-45, y+12)
	pdf.Line(20, y+15, 80, y+15)
	centered(pdf, "Firma del receptor", 50, y+20)
}

func (r *ReceiptRenderer) drawBalanceDetail(pdf *gofpdf.Fpdf, tr func(string) string, rc Receipt, y, width float64) {
	pdf.Text(25, y, "Concepto")
	pdf.Text(90, y, "Monto Total")
	pdf.Text(130, y, "Abono")
	pdf.Text(165, y, "Pendiente")
	pdf.Line(20, y+2, width-20, y+2)
	y += 8

	pdf.Text(25, y, tr(rc.Concept))
	pdf.Text(90, y, Money(rc.Total))
	pdf.Text(130, y, Money(rc.AmountPaid))
	if rc.Pending.IsZero() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Text(165, y, "CANCELADO")
		pdf.SetFont("Helvetica", "", 10)
	} else {
		pdf.Text(165, y, Money(rc.Pending))
	}
	pdf.Line(20, y+4, width-20, y+4)

	if rc.IsAbono {
		y += 12
		pdf.Rect(20, y-4, width-40, 10, "D")
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Text(25, y+2, "Este recibo corresponde a un ABONO. Total abonado hasta la fecha: "+Money(rc.Paid))
		pdf.SetFont("Helvetica", "", 10)
	}
}

func (r *ReceiptRenderer) drawMonthlyDetail(pdf *gofpdf.Fpdf, tr func(string) string, rc Receipt, y, width float64) {
	pdf.Text(25, y, "Concepto")
	pdf.Text(90, y, "Mes")
	pdf.Text(130, y, "Monto")
	pdf.Text(155, y, "Mora")
	pdf.Text(180, y, "Total")
	pdf.Line(20, y+2, width-20, y+2)
	y += 8

	pdf.Text(25, y, tr(rc.Concept))
	pdf.Text(90, y, tr(rc.Month))
	pdf.Text(130, y, Money(rc.Amount))
	pdf.Text(155, y, Money(rc.Mora))
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(180, y, Money(rc.Amount.Add(rc.Mora)))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Line(20, y+4, width-20, y+4)

	if note := lateFeeNote(rc); note != "" {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.Text(25, y+10, tr(note))
		pdf.SetFont("Helvetica", "", 10)
	}
}

func lateFeeNote(rc Receipt) string {
	if !rc.Monthly || !rc.Mora.IsPositive() {
		return ""
	}
	return LateFeeNote
}

func centered(pdf *gofpdf.Fpdf, text string, x, y float64) {
	pdf.Text(x-pdf.GetStringWidth(text)/2, y, text)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// Money formats an amount in quetzales with two decimals.
func Money(d decimal.Decimal) string {
	return "Q" + d.StringFixed(2)
}

// FormatLongDate renders dates the way Guatemalan receipts print them: "05 de marzo de 2024".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}
