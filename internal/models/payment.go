package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeCategory identifies a flat-fee payment category by its backend key.
type FeeCategory string

// Flat-fee categories. Tuition, course and graduation payments have their own flows.
const (
	FeeEnrollment   FeeCategory = "inscripcion"
	FeeUniform      FeeCategory = "uniforme"
	FeeReadingBooks FeeCategory = "libros_lectura"
	FeeAnnualCopies FeeCategory = "copias_anuales"
	FeeEnglishBook  FeeCategory = "libro_ingles"
	FeeExcursion    FeeCategory = "excursion"
	FeeSpecialty    FeeCategory = "especialidad"
)

// FlatFeeCategories lists categories in the order the payments screen shows them.
var FlatFeeCategories = []FeeCategory{
	FeeEnrollment,
	FeeUniform,
	FeeReadingBooks,
	FeeAnnualCopies,
	FeeEnglishBook,
	FeeExcursion,
	FeeSpecialty,
}

var feeCategoryLabels = map[FeeCategory]string{
	FeeEnrollment:   "Pago Inscripción",
	FeeUniform:      "Pago Uniforme",
	FeeReadingBooks: "Pago Libros de Lectura",
	FeeAnnualCopies: "Pago Copias Anuales",
	FeeEnglishBook:  "Pago Libro de Inglés",
	FeeExcursion:    "Pago Excursión",
	FeeSpecialty:    "Pago Especialidad",
}

// Valid reports whether the category is a known flat-fee key.
func (c FeeCategory) Valid() bool {
	_, ok := feeCategoryLabels[c]
	return ok
}

// Label returns the display name used on screens and receipts.
func (c FeeCategory) Label() string {
	if label, ok := feeCategoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// PaymentMethod is a read-only lookup entry (cash, deposit, transfer...).
type PaymentMethod struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PaymentRecord is the backend's running balance for one flat-fee category.
type PaymentRecord struct {
	ID      FlexString      `json:"id,omitempty"`
	Total   decimal.Decimal `json:"monto_total"`
	Paid    decimal.Decimal `json:"monto_adelanto"`
	Pending decimal.Decimal `json:"monto_pendiente"`
}

// FlatFeePaymentInput is the write payload for a flat-fee category.
type FlatFeePaymentInput struct {
	Total           decimal.Decimal `json:"monto_total"`
	Abono           decimal.Decimal `json:"monto_abono"`
	PendingPayment  bool            `json:"es_pago_pendiente"`
	PaymentMethodID int             `json:"payment_method_id"`
}

// FlatFeePaymentResult is the backend's answer to a flat-fee write.
type FlatFeePaymentResult struct {
	Payment       PaymentRecord   `json:"pago"`
	ReceiptNumber FlexString      `json:"numeroRecibo"`
	Concept       string          `json:"tipoPago"`
	AmountPaid    decimal.Decimal `json:"montoAbonado"`
	IsAbono       bool            `json:"esAbono"`
	Settled       bool            `json:"estaCancelado"`
	PaymentMethod string          `json:"metodo_pago"`
}

// GraduationPayment is the singleton graduation balance of a student.
type GraduationPayment struct {
	ID      FlexString      `json:"id,omitempty"`
	Total   decimal.Decimal `json:"total_amount"`
	Paid    decimal.Decimal `json:"paid_amount"`
	Pending decimal.Decimal `json:"pending_amount"`
}

// GraduationStatus is the read model of the graduation endpoint.
type GraduationStatus struct {
	Eligible bool               `json:"aplica"`
	Payment  *GraduationPayment `json:"pago"`
}

// GraduationPaymentInput is the write payload for the graduation payment.
type GraduationPaymentInput struct {
	Total           decimal.Decimal `json:"total_amount"`
	Abono           decimal.Decimal `json:"paid_amount"`
	PendingPayment  bool            `json:"es_pago_pendiente"`
	PaymentMethodID int             `json:"payment_method_id"`
}

// GraduationPaymentResult is the backend's answer to a graduation write.
type GraduationPaymentResult struct {
	Payment       GraduationPayment `json:"pago"`
	ReceiptNumber FlexString        `json:"numeroRecibo"`
	AmountPaid    decimal.Decimal   `json:"montoAbonado"`
	IsAbono       bool              `json:"esAbono"`
	Settled       bool              `json:"estaCancelado"`
	PaymentMethod string            `json:"metodo_pago"`
}

// TuitionPayment settles one month of colegiatura.
type TuitionPayment struct {
	ID     FlexString      `json:"id,omitempty"`
	Month  string          `json:"mes"`
	Amount decimal.Decimal `json:"monto_colegiatura"`
	Mora   decimal.Decimal `json:"mora"`
	Total  decimal.Decimal `json:"total_pagado"`
	PaidAt string          `json:"fecha_pago,omitempty"`
}

// TuitionPaymentInput is the write payload for a tuition month.
type TuitionPaymentInput struct {
	Month           string          `json:"mes"`
	Amount          decimal.Decimal `json:"monto_colegiatura"`
	Mora            decimal.Decimal `json:"mora"`
	PaymentMethodID int             `json:"payment_method_id"`
}

// TuitionPaymentResult is the backend's answer to a tuition write.
type TuitionPaymentResult struct {
	Payment       TuitionPayment `json:"pago"`
	Student       *Student       `json:"estudiante,omitempty"`
	ReceiptNumber FlexString     `json:"numeroBoleto"`
	PaymentMethod string         `json:"metodo_pago"`
}

// PaymentSearchResult is a student hit in one of the payment search boxes.
type PaymentSearchResult = Student

// MoraPreview is the advisory late-fee computation shown before submitting.
type MoraPreview struct {
	Month   int             `json:"month"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Mora    decimal.Decimal `json:"mora"`
	Total   decimal.Decimal `json:"total"`
	Applies bool            `json:"applies"`
	AsOf    time.Time       `json:"as_of"`
}
