package models

import "github.com/shopspring/decimal"

// CourseMonth is an entry of the backend month catalog (id is the month number).
type CourseMonth struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CoursePayment settles one month of an extracurricular course.
type CoursePayment struct {
	ID      FlexString      `json:"id,omitempty"`
	MonthID int             `json:"month_id"`
	Amount  decimal.Decimal `json:"amount"`
	Mora    decimal.Decimal `json:"mora"`
	PaidAt  string          `json:"payment_date,omitempty"`
}

// Total is amount plus late fee.
func (p CoursePayment) Total() decimal.Decimal {
	return p.Amount.Add(p.Mora)
}

// CoursePaymentInput is the write payload for a course month.
type CoursePaymentInput struct {
	StudentID       string          `json:"estudiante_id"`
	MonthID         int             `json:"mes_id"`
	Amount          decimal.Decimal `json:"monto"`
	Mora            decimal.Decimal `json:"mora"`
	PaymentMethodID int             `json:"payment_method_id"`
}

// CoursePaymentResult is the backend's answer to a course payment write.
type CoursePaymentResult struct {
	Payment       CoursePayment `json:"data"`
	ReceiptNumber FlexString    `json:"numero_recibo"`
	PaymentMethod string        `json:"metodo_pago"`
}

// CourseSummary aggregates a student's course payments.
type CourseSummary struct {
	MonthsPaid    int             `json:"meses_pagados"`
	MonthsPending int             `json:"meses_pendientes"`
	TotalPaid     decimal.Decimal `json:"total_pagado"`
}
