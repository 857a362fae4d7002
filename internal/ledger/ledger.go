// Package ledger keeps the payment view of one selected student and mutates it
// only through the school backend.
package ledger

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/fees"
	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

// API is the slice of the school backend the ledger needs.
type API interface {
	StudentPayments(ctx context.Context, studentID string) (map[models.FeeCategory]*models.PaymentRecord, error)
	FlatFee(ctx context.Context, studentID string, category models.FeeCategory) (*models.PaymentRecord, error)
	RecordFlatFee(ctx context.Context, studentID string, category models.FeeCategory, input models.FlatFeePaymentInput) (*models.FlatFeePaymentResult, error)
	TuitionHistory(ctx context.Context, studentID string) ([]models.TuitionPayment, error)
	RecordTuition(ctx context.Context, studentID string, input models.TuitionPaymentInput) (*models.TuitionPaymentResult, error)
	CourseMonths(ctx context.Context) ([]models.CourseMonth, error)
	CoursePayments(ctx context.Context, studentID string) ([]models.CoursePayment, error)
	RecordCoursePayment(ctx context.Context, input models.CoursePaymentInput) (*models.CoursePaymentResult, error)
	GraduationStatus(ctx context.Context, studentID string) (*models.GraduationStatus, error)
	RecordGraduation(ctx context.Context, studentID string, input models.GraduationPaymentInput) (*models.GraduationPaymentResult, error)
}

// MonthlyKind selects the monthly payment flow.
type MonthlyKind string

// Monthly flows.
const (
	MonthlyTuition MonthlyKind = "tuition"
	MonthlyCourse  MonthlyKind = "course"
)

// FlatFeeRequest registers a category (Total required) or pays an abono on it.
type FlatFeeRequest struct {
	Category        models.FeeCategory
	Total           decimal.Decimal
	Abono           decimal.Decimal
	PaymentMethodID int
}

// GraduationRequest has the same two modes as FlatFeeRequest.
type GraduationRequest struct {
	Total           decimal.Decimal
	Abono           decimal.Decimal
	PaymentMethodID int
}

// MonthlyRequest pays one tuition or course month.
type MonthlyRequest struct {
	Kind            MonthlyKind
	Month           fees.Month
	Amount          decimal.Decimal
	PaymentMethodID int
}

// Outcome carries what a receipt needs after a confirmed mutation.
type Outcome struct {
	Kind            models.ReceiptKind `json:"kind"`
	Category        models.FeeCategory `json:"category,omitempty"`
	Concept         string             `json:"concept"`
	ReceiptNumber   string             `json:"receipt_number"`
	Student         models.Student     `json:"student"`
	PaymentMethodID int                `json:"payment_method_id"`
	PaymentMethod   string             `json:"payment_method"`

	// Flat-fee and graduation balances.
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Paid       decimal.Decimal `json:"paid"`
	Pending    decimal.Decimal `json:"pending"`
	Settled    bool            `json:"settled"`
	IsAbono    bool            `json:"is_abono"`

	// Monthly payments.
	Month  fees.Month      `json:"month,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Mora   decimal.Decimal `json:"mora"`

	RecordedAt time.Time `json:"recorded_at"`
}

// GraduationState is the graduation view of the selected student.
type GraduationState struct {
	Eligible bool
	Balance  *fees.Balance
}

// Ledger holds the payment state of the currently selected student.
// Mutations are serialised by busy; concurrent attempts fail with ErrBusy.
type Ledger struct {
	api    API
	logger *zap.Logger
	now    func() time.Time

	busy sync.Mutex

	mu             sync.RWMutex
	student        *models.Student
	flat           map[models.FeeCategory]fees.Balance
	tuition        []models.TuitionPayment
	courseMonths   []models.CourseMonth
	coursePayments []models.CoursePayment
	graduation     GraduationState
	lastUsed       time.Time
}

// New constructs an empty ledger.
func New(api API, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		api:    api,
		logger: logger,
		now:    time.Now,
		flat:   make(map[models.FeeCategory]fees.Balance),
	}
}

// WithClock overrides the time source used for late fees and receipt dates.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Select loads the payment state of student, replacing any previous selection.
// A graduation lookup failure leaves the student eligible without a record.
func (l *Ledger) Select(ctx context.Context, student models.Student) error {
	if !l.busy.TryLock() {
		return appErrors.ErrBusy
	}
	defer l.busy.Unlock()

	id := student.ID.String()
	if id == "" {
		return appErrors.Validation("estudiante inválido")
	}

	records, err := l.api.StudentPayments(ctx, id)
	if err != nil {
		return err
	}
	tuition, err := l.api.TuitionHistory(ctx, id)
	if err != nil {
		return err
	}

	var (
		courseMonths   []models.CourseMonth
		coursePayments []models.CoursePayment
	)
	if student.HasExtraCourse() {
		if courseMonths, err = l.api.CourseMonths(ctx); err != nil {
			return err
		}
		if coursePayments, err = l.api.CoursePayments(ctx, id); err != nil {
			return err
		}
	}

	graduation := GraduationState{}
	if fees.IsGraduationEligible(student.Grade) {
		graduation.Eligible = true
		status, err := l.api.GraduationStatus(ctx, id)
		switch {
		case err != nil:
			l.logger.Warn("graduation lookup failed", zap.String("student_id", id), zap.Error(err))
		case status != nil:
			graduation.Eligible = status.Eligible
			if status.Payment != nil && status.Payment.Total.IsPositive() {
				graduation.Balance = &fees.Balance{
					Total:   status.Payment.Total,
					Paid:    status.Payment.Paid,
					Pending: status.Payment.Pending,
				}
			}
		}
	}

	flat := make(map[models.FeeCategory]fees.Balance, len(records))
	for category, record := range records {
		if record == nil || !record.Total.IsPositive() {
			continue
		}
		flat[category] = balanceFromRecord(*record)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	selected := student
	l.student = &selected
	l.flat = flat
	l.tuition = tuition
	l.courseMonths = courseMonths
	l.coursePayments = coursePayments
	l.graduation = graduation
	l.lastUsed = l.now()
	return nil
}

// Student returns the selected student, if any.
func (l *Ledger) Student() (models.Student, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.student == nil {
		return models.Student{}, false
	}
	return *l.student, true
}

// LastUsed reports when the ledger was last selected or mutated.
func (l *Ledger) LastUsed() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastUsed
}

// Busy reports whether a mutation is in flight.
func (l *Ledger) Busy() bool {
	if l.busy.TryLock() {
		l.busy.Unlock()
		return false
	}
	return true
}

// RecordFlatFee registers or pays an abono on a flat-fee category.
func (l *Ledger) RecordFlatFee(ctx context.Context, req FlatFeeRequest) (*Outcome, error) {
	if !req.Category.Valid() {
		return nil, appErrors.Validation("tipo de pago inválido")
	}
	if req.PaymentMethodID <= 0 {
		return nil, appErrors.Validation("Seleccione un método de pago")
	}

	if !l.busy.TryLock() {
		return nil, appErrors.ErrBusy
	}
	defer l.busy.Unlock()

	student, err := l.selected()
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	current, exists := l.flat[req.Category]
	l.mu.RUnlock()

	preview, input, err := planBalance(current, exists, req.Total, req.Abono)
	if err != nil {
		return nil, err
	}

	result, err := l.api.RecordFlatFee(ctx, student.ID.String(), req.Category, models.FlatFeePaymentInput{
		Total:           input.Total,
		Abono:           req.Abono,
		PendingPayment:  exists,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}

	balance := preview
	confirmed, ok := l.confirmFlatFee(ctx, student.ID.String(), req.Category, result.Payment)
	if ok {
		balance = confirmed
	}

	l.mu.Lock()
	if ok {
		l.flat[req.Category] = balance
	}
	l.lastUsed = l.now()
	l.mu.Unlock()

	concept := result.Concept
	if concept == "" {
		concept = req.Category.Label()
	}
	amountPaid := req.Abono
	if result.AmountPaid.IsPositive() {
		amountPaid = result.AmountPaid
	}

	return &Outcome{
		Kind:            models.ReceiptKindFlatFee,
		Category:        req.Category,
		Concept:         concept,
		ReceiptNumber:   result.ReceiptNumber.String(),
		Student:         student,
		PaymentMethodID: req.PaymentMethodID,
		PaymentMethod:   result.PaymentMethod,
		Total:           balance.Total,
		AmountPaid:      amountPaid,
		Paid:            balance.Paid,
		Pending:         balance.Pending,
		Settled:         balance.IsSettled(),
		IsAbono:         exists || result.IsAbono,
		RecordedAt:      l.now(),
	}, nil
}

// RecordGraduation registers or pays an abono on the graduation fee.
func (l *Ledger) RecordGraduation(ctx context.Context, req GraduationRequest) (*Outcome, error) {
	if req.PaymentMethodID <= 0 {
		return nil, appErrors.Validation("Seleccione un método de pago")
	}

	if !l.busy.TryLock() {
		return nil, appErrors.ErrBusy
	}
	defer l.busy.Unlock()

	student, err := l.selected()
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	state := l.graduation
	l.mu.RUnlock()
	if !state.Eligible {
		return nil, appErrors.ErrNotEligible
	}

	var current fees.Balance
	exists := state.Balance != nil
	if exists {
		current = *state.Balance
	}
	preview, input, err := planBalance(current, exists, req.Total, req.Abono)
	if err != nil {
		return nil, err
	}

	result, err := l.api.RecordGraduation(ctx, student.ID.String(), models.GraduationPaymentInput{
		Total:           input.Total,
		Abono:           req.Abono,
		PendingPayment:  exists,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}

	balance := preview
	confirmed, ok := l.confirmGraduation(ctx, student.ID.String(), result.Payment)
	if ok {
		balance = confirmed
	}

	l.mu.Lock()
	if ok {
		l.graduation.Balance = &confirmed
	}
	l.lastUsed = l.now()
	l.mu.Unlock()

	return &Outcome{
		Kind:            models.ReceiptKindGraduation,
		Concept:         "Pago Graduación",
		ReceiptNumber:   result.ReceiptNumber.String(),
		Student:         student,
		PaymentMethodID: req.PaymentMethodID,
		PaymentMethod:   result.PaymentMethod,
		Total:           balance.Total,
		AmountPaid:      req.Abono,
		Paid:            balance.Paid,
		Pending:         balance.Pending,
		Settled:         balance.IsSettled(),
		IsAbono:         exists || result.IsAbono,
		RecordedAt:      l.now(),
	}, nil
}

// RecordMonthly pays one tuition or course month. The late fee sent is a
// preview; the stored values come back in the backend response.
func (l *Ledger) RecordMonthly(ctx context.Context, req MonthlyRequest) (*Outcome, error) {
	if req.Kind != MonthlyTuition && req.Kind != MonthlyCourse {
		return nil, appErrors.Validation("tipo de pago mensual inválido")
	}
	if !req.Month.Valid() {
		return nil, appErrors.Validation("Seleccione un mes")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Validation("El monto debe ser mayor a 0")
	}
	if req.PaymentMethodID <= 0 {
		return nil, appErrors.Validation("Seleccione un método de pago")
	}

	if !l.busy.TryLock() {
		return nil, appErrors.ErrBusy
	}
	defer l.busy.Unlock()

	student, err := l.selected()
	if err != nil {
		return nil, err
	}

	switch req.Kind {
	case MonthlyTuition:
		return l.recordTuition(ctx, student, req)
	default:
		return l.recordCourse(ctx, student, req)
	}
}

func (l *Ledger) recordTuition(ctx context.Context, student models.Student, req MonthlyRequest) (*Outcome, error) {
	if !fees.Contains(fees.TuitionMonths, req.Month) {
		return nil, appErrors.Validation("El mes no corresponde al ciclo de colegiatura")
	}
	if fees.Contains(l.PaidTuitionMonths(), req.Month) {
		return nil, appErrors.ErrMonthAlreadyPaid
	}

	now := l.now()
	mora := fees.Mora(req.Month, now)
	result, err := l.api.RecordTuition(ctx, student.ID.String(), models.TuitionPaymentInput{
		Month:           req.Month.String(),
		Amount:          req.Amount,
		Mora:            mora,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}

	payment := result.Payment
	if payment.Month == "" {
		payment.Month = req.Month.String()
	}

	var history []models.TuitionPayment
	confirmed := payment.Amount.IsPositive()
	if !confirmed {
		history, confirmed = l.rereadTuition(ctx, student.ID.String())
		payment = models.TuitionPayment{Month: req.Month.String(), Amount: req.Amount, Mora: mora}
		for _, p := range history {
			if month, err := fees.ParseMonthName(p.Month); err == nil && month == req.Month {
				payment = p
			}
		}
	}
	if !payment.Total.IsPositive() {
		payment.Total = payment.Amount.Add(payment.Mora)
	}

	l.mu.Lock()
	switch {
	case history != nil:
		l.tuition = history
	case confirmed:
		l.tuition = append(l.tuition, payment)
	}
	l.lastUsed = now
	l.mu.Unlock()

	return &Outcome{
		Kind:            models.ReceiptKindTuition,
		Concept:         "Colegiatura",
		ReceiptNumber:   result.ReceiptNumber.String(),
		Student:         student,
		PaymentMethodID: req.PaymentMethodID,
		PaymentMethod:   result.PaymentMethod,
		Month:           req.Month,
		Amount:          payment.Amount,
		Mora:            payment.Mora,
		Total:           payment.Total,
		Settled:         true,
		RecordedAt:      now,
	}, nil
}

func (l *Ledger) recordCourse(ctx context.Context, student models.Student, req MonthlyRequest) (*Outcome, error) {
	if !student.HasExtraCourse() {
		return nil, appErrors.Validation("El estudiante no está inscrito en un curso extra")
	}

	l.mu.RLock()
	catalog := l.courseMonths
	l.mu.RUnlock()
	if len(catalog) > 0 && !fees.Contains(monthsOf(catalog), req.Month) {
		return nil, appErrors.Validation("Seleccione un mes válido")
	}
	if fees.Contains(l.PaidCourseMonths(), req.Month) {
		return nil, appErrors.ErrMonthAlreadyPaid
	}

	now := l.now()
	mora := fees.Mora(req.Month, now)
	result, err := l.api.RecordCoursePayment(ctx, models.CoursePaymentInput{
		StudentID:       student.ID.String(),
		MonthID:         int(req.Month),
		Amount:          req.Amount,
		Mora:            mora,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}

	payment := result.Payment
	payment.MonthID = int(req.Month)

	var history []models.CoursePayment
	confirmed := payment.Amount.IsPositive()
	if !confirmed {
		history, confirmed = l.rereadCourse(ctx, student.ID.String())
		payment = models.CoursePayment{MonthID: int(req.Month), Amount: req.Amount, Mora: mora}
		for _, p := range history {
			if p.MonthID == int(req.Month) {
				payment = p
			}
		}
	}

	l.mu.Lock()
	switch {
	case history != nil:
		l.coursePayments = history
	case confirmed:
		l.coursePayments = append(l.coursePayments, payment)
	}
	l.lastUsed = now
	l.mu.Unlock()

	number := result.ReceiptNumber.String()
	if number == "" {
		number = fallbackCourseReceipt(now)
	}

	concept := "Curso extra"
	if name := student.CourseName(); name != "" {
		concept = name
	}

	return &Outcome{
		Kind:            models.ReceiptKindCourse,
		Concept:         concept,
		ReceiptNumber:   number,
		Student:         student,
		PaymentMethodID: req.PaymentMethodID,
		PaymentMethod:   result.PaymentMethod,
		Month:           req.Month,
		Amount:          payment.Amount,
		Mora:            payment.Mora,
		Total:           payment.Total(),
		Settled:         true,
		RecordedAt:      now,
	}, nil
}

// confirmFlatFee returns the stored balance of category after a write. When the
// response carries no record it is read back; false means nothing to cache.
func (l *Ledger) confirmFlatFee(ctx context.Context, studentID string, category models.FeeCategory, written models.PaymentRecord) (fees.Balance, bool) {
	if written.Total.IsPositive() {
		return balanceFromRecord(written), true
	}
	record, err := l.api.FlatFee(ctx, studentID, category)
	if err != nil {
		l.logger.Warn("flat fee re-read failed", zap.String("student_id", studentID), zap.String("category", string(category)), zap.Error(err))
		return fees.Balance{}, false
	}
	if record == nil || !record.Total.IsPositive() {
		return fees.Balance{}, false
	}
	return balanceFromRecord(*record), true
}

func (l *Ledger) confirmGraduation(ctx context.Context, studentID string, written models.GraduationPayment) (fees.Balance, bool) {
	if written.Total.IsPositive() {
		return fees.Balance{Total: written.Total, Paid: written.Paid, Pending: written.Pending}, true
	}
	status, err := l.api.GraduationStatus(ctx, studentID)
	if err != nil {
		l.logger.Warn("graduation re-read failed", zap.String("student_id", studentID), zap.Error(err))
		return fees.Balance{}, false
	}
	if status == nil || status.Payment == nil || !status.Payment.Total.IsPositive() {
		return fees.Balance{}, false
	}
	p := status.Payment
	return fees.Balance{Total: p.Total, Paid: p.Paid, Pending: p.Pending}, true
}

func (l *Ledger) rereadTuition(ctx context.Context, studentID string) ([]models.TuitionPayment, bool) {
	history, err := l.api.TuitionHistory(ctx, studentID)
	if err != nil {
		l.logger.Warn("tuition re-read failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, false
	}
	if history == nil {
		history = []models.TuitionPayment{}
	}
	return history, true
}

func (l *Ledger) rereadCourse(ctx context.Context, studentID string) ([]models.CoursePayment, bool) {
	history, err := l.api.CoursePayments(ctx, studentID)
	if err != nil {
		l.logger.Warn("course payments re-read failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, false
	}
	if history == nil {
		history = []models.CoursePayment{}
	}
	return history, true
}

func (l *Ledger) selected() (models.Student, error) {
	student, ok := l.Student()
	if !ok {
		return models.Student{}, appErrors.ErrNoStudentSelected
	}
	return student, nil
}

// planBalance validates a flat or graduation request against the cached balance
// and returns the expected resulting balance plus the balance to send.
func planBalance(current fees.Balance, exists bool, total, abono decimal.Decimal) (fees.Balance, fees.Balance, error) {
	if exists {
		if current.IsSettled() {
			return fees.Balance{}, fees.Balance{}, appErrors.ErrPaymentSettled
		}
		next, err := fees.ApplyAbono(current, abono)
		if err != nil {
			return fees.Balance{}, fees.Balance{}, ruleError(err)
		}
		return next, current, nil
	}
	next, err := fees.Register(total, abono)
	if err != nil {
		return fees.Balance{}, fees.Balance{}, ruleError(err)
	}
	return next, next, nil
}

func ruleError(err error) error {
	if errors.Is(err, fees.ErrSettled) {
		return appErrors.ErrPaymentSettled
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
}

func balanceFromRecord(record models.PaymentRecord) fees.Balance {
	return fees.Balance{Total: record.Total, Paid: record.Paid, Pending: record.Pending}
}

func monthsOf(catalog []models.CourseMonth) []fees.Month {
	months := make([]fees.Month, 0, len(catalog))
	for _, m := range catalog {
		if month, err := fees.MonthFromID(m.ID); err == nil {
			months = append(months, month)
		}
	}
	return months
}

func fallbackCourseReceipt(now time.Time) string {
	digits := strconv.FormatInt(now.UnixMilli(), 10)
	if len(digits) > 8 {
		digits = digits[len(digits)-8:]
	}
	return "CRS-" + digits
}
