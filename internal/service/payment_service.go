package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/fees"
	"github.com/cetinnova/registro-escolar/internal/ledger"
	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

// SearchScope selects which backend search box a student lookup goes through.
type SearchScope string

// Search scopes.
const (
	SearchPayments SearchScope = "pagos"
	SearchCourses  SearchScope = "cursos"
	SearchUniforms SearchScope = "uniformes"
)

// PaymentBackend is the part of the school backend used by payment flows.
type PaymentBackend interface {
	ledger.API
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	SearchPaymentStudents(ctx context.Context, name string) ([]models.Student, error)
	SearchCourseStudents(ctx context.Context, name string) ([]models.Student, error)
	SearchUniformStudents(ctx context.Context, name string) ([]models.Student, error)
	PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

type receiptIssuer interface {
	Issue(ctx context.Context, outcome *ledger.Outcome, actor string) (*models.ReceiptDocument, error)
}

// PaymentServiceConfig tunes ledger sessions and fee defaults.
type PaymentServiceConfig struct {
	SessionTTL       time.Duration
	CourseMonthlyFee decimal.Decimal
}

// FlatFeePaymentRequest registers a category or pays an abono on it.
type FlatFeePaymentRequest struct {
	Total           decimal.Decimal `json:"monto_total"`
	Abono           decimal.Decimal `json:"monto_abono"`
	PaymentMethodID int             `json:"metodo_pago_id"`
}

// GraduationPaymentRequest has the same shape as a flat-fee payment.
type GraduationPaymentRequest = FlatFeePaymentRequest

// MonthlyPaymentRequest pays one tuition or course month. The month may be
// given by id or by name.
type MonthlyPaymentRequest struct {
	MonthID         int             `json:"mes_id"`
	Month           string          `json:"mes"`
	Amount          decimal.Decimal `json:"monto"`
	PaymentMethodID int             `json:"metodo_pago_id"`
}

// PaymentResult is returned after a confirmed payment.
type PaymentResult struct {
	Payment      *ledger.Outcome         `json:"payment"`
	Receipt      *models.ReceiptDocument `json:"receipt,omitempty"`
	ReceiptError string                  `json:"receipt_error,omitempty"`
	Ledger       ledger.View             `json:"ledger"`
}

type ledgerSession struct {
	ledger  *ledger.Ledger
	created time.Time
}

// PaymentService drives the payment ledger of each operator.
type PaymentService struct {
	backend  PaymentBackend
	cache    *CacheService
	receipts receiptIssuer
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      PaymentServiceConfig
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*ledgerSession
}

// NewPaymentService constructs the payment service.
func NewPaymentService(backend PaymentBackend, cache *CacheService, receipts receiptIssuer, metrics *MetricsService, logger *zap.Logger, cfg PaymentServiceConfig) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if !cfg.CourseMonthlyFee.IsPositive() {
		cfg.CourseMonthlyFee = decimal.NewFromInt(150)
	}
	return &PaymentService{
		backend:  backend,
		cache:    cache,
		receipts: receipts,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*ledgerSession),
	}
}

// Search looks students up by name through the selected search box.
func (s *PaymentService) Search(ctx context.Context, scope SearchScope, name string) ([]models.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Validation("Ingrese un nombre para buscar")
	}

	var (
		students []models.Student
		err      error
	)
	switch scope {
	case SearchPayments, "":
		students, err = s.backend.SearchPaymentStudents(ctx, name)
	case SearchCourses:
		students, err = s.backend.SearchCourseStudents(ctx, name)
	case SearchUniforms:
		students, err = s.backend.SearchUniformStudents(ctx, name)
	default:
		return nil, appErrors.Validation("búsqueda inválida")
	}
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// PaymentMethods returns the payment method catalogue.
func (s *PaymentService) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return remember(ctx, s.cache, cacheKeyPaymentMethods, s.backend.PaymentMethods)
}

// Select loads the payment state of a student into the operator's ledger.
func (s *PaymentService) Select(ctx context.Context, actor, studentID string) (*ledger.View, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, appErrors.Validation("estudiante inválido")
	}
	student, err := s.backend.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	l := s.session(actor, studentID, true)
	if err := l.Select(ctx, *student); err != nil {
		return nil, err
	}
	s.logger.Debug("student selected", zap.String("actor", actor), zap.String("student_id", studentID))
	return s.view(l)
}

// View returns the current ledger state without reloading it.
func (s *PaymentService) View(ctx context.Context, actor, studentID string) (*ledger.View, error) {
	l := s.session(actor, studentID, false)
	if l == nil {
		return nil, appErrors.ErrNoStudentSelected
	}
	return s.view(l)
}

// RecordFlatFee registers or pays an abono on a flat-fee category.
func (s *PaymentService) RecordFlatFee(ctx context.Context, actor, studentID string, category models.FeeCategory, req FlatFeePaymentRequest) (*PaymentResult, error) {
	l := s.session(actor, studentID, false)
	if l == nil {
		return nil, appErrors.ErrNoStudentSelected
	}
	outcome, err := l.RecordFlatFee(ctx, ledger.FlatFeeRequest{
		Category:        category,
		Total:           req.Total,
		Abono:           req.Abono,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, actor, l, outcome)
}

// RecordGraduation registers or pays an abono on the graduation fee.
func (s *PaymentService) RecordGraduation(ctx context.Context, actor, studentID string, req GraduationPaymentRequest) (*PaymentResult, error) {
	l := s.session(actor, studentID, false)
	if l == nil {
		return nil, appErrors.ErrNoStudentSelected
	}
	outcome, err := l.RecordGraduation(ctx, ledger.GraduationRequest{
		Total:           req.Total,
		Abono:           req.Abono,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, actor, l, outcome)
}

// RecordTuition pays one tuition month.
func (s *PaymentService) RecordTuition(ctx context.Context, actor, studentID string, req MonthlyPaymentRequest) (*PaymentResult, error) {
	return s.recordMonthly(ctx, actor, studentID, ledger.MonthlyTuition, req)
}

// RecordCourse pays one course month. A zero amount uses the configured monthly fee.
func (s *PaymentService) RecordCourse(ctx context.Context, actor, studentID string, req MonthlyPaymentRequest) (*PaymentResult, error) {
	if req.Amount.IsZero() {
		req.Amount = s.cfg.CourseMonthlyFee
	}
	return s.recordMonthly(ctx, actor, studentID, ledger.MonthlyCourse, req)
}

// MoraPreview computes the advisory late fee for paying month today.
func (s *PaymentService) MoraPreview(monthID int, monthName string, amount decimal.Decimal) (*models.MoraPreview, error) {
	month, err := resolveMonth(monthID, monthName)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, appErrors.Validation("El monto no puede ser negativo")
	}
	now := s.now()
	mora := fees.Mora(month, now)
	return &models.MoraPreview{
		Month:   int(month),
		Name:    month.String(),
		Amount:  amount,
		Mora:    mora,
		Total:   amount.Add(mora),
		Applies: mora.IsPositive(),
		AsOf:    now,
	}, nil
}

// Sessions reports the number of live ledger sessions.
func (s *PaymentService) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *PaymentService) recordMonthly(ctx context.Context, actor, studentID string, kind ledger.MonthlyKind, req MonthlyPaymentRequest) (*PaymentResult, error) {
	month, err := resolveMonth(req.MonthID, req.Month)
	if err != nil {
		return nil, err
	}
	l := s.session(actor, studentID, false)
	if l == nil {
		return nil, appErrors.ErrNoStudentSelected
	}
	outcome, err := l.RecordMonthly(ctx, ledger.MonthlyRequest{
		Kind:            kind,
		Month:           month,
		Amount:          req.Amount,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, actor, l, outcome)
}

// finish runs after the backend confirmed a payment. Nothing here can undo
// it, so receipt failures are reported alongside the result.
func (s *PaymentService) finish(ctx context.Context, actor string, l *ledger.Ledger, outcome *ledger.Outcome) (*PaymentResult, error) {
	if outcome.PaymentMethod == "" {
		outcome.PaymentMethod = s.methodName(ctx, outcome.PaymentMethodID)
	}
	s.metrics.RecordPayment(string(outcome.Kind), string(outcome.Category))
	s.logger.Info("payment recorded",
		zap.String("actor", actor),
		zap.String("student_id", outcome.Student.ID.String()),
		zap.String("kind", string(outcome.Kind)),
		zap.String("receipt_number", outcome.ReceiptNumber),
	)

	result := &PaymentResult{Payment: outcome}
	if s.receipts != nil {
		doc, err := s.receipts.Issue(ctx, outcome, actor)
		if err != nil {
			s.logger.Error("receipt generation failed", zap.String("receipt_number", outcome.ReceiptNumber), zap.Error(err))
			result.ReceiptError = "El pago fue registrado pero no se pudo generar el recibo"
		}
		result.Receipt = doc
	}

	if view, ok := l.View(); ok {
		result.Ledger = view
	}
	return result, nil
}

func (s *PaymentService) methodName(ctx context.Context, id int) string {
	methods, err := s.PaymentMethods(ctx)
	if err != nil {
		s.logger.Warn("payment methods lookup failed", zap.Error(err))
		return ""
	}
	for _, m := range methods {
		if m.ID == id {
			return m.Name
		}
	}
	return ""
}

func (s *PaymentService) view(l *ledger.Ledger) (*ledger.View, error) {
	view, ok := l.View()
	if !ok {
		return nil, appErrors.ErrNoStudentSelected
	}
	return &view, nil
}

// session returns the ledger of actor for studentID, creating it when asked.
// Idle sessions are evicted on every call.
func (s *PaymentService) session(actor, studentID string, create bool) *ledger.Ledger {
	key := actor + "|" + strings.TrimSpace(studentID)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, sess := range s.sessions {
		last := sess.ledger.LastUsed()
		if sess.created.After(last) {
			last = sess.created
		}
		if now.Sub(last) > s.cfg.SessionTTL && !sess.ledger.Busy() {
			delete(s.sessions, k)
		}
	}

	sess, ok := s.sessions[key]
	if !ok && create {
		sess = &ledgerSession{
			ledger:  ledger.New(s.backend, s.logger.With(zap.String("actor", actor))).WithClock(s.now),
			created: now,
		}
		s.sessions[key] = sess
		ok = true
	}
	s.metrics.SetLedgerSessions(len(s.sessions))
	if !ok {
		return nil
	}
	return sess.ledger
}

func resolveMonth(id int, name string) (fees.Month, error) {
	var (
		month fees.Month
		err   error
	)
	if id > 0 {
		month, err = fees.MonthFromID(id)
	} else {
		month, err = fees.ParseMonthName(name)
	}
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Seleccione un mes")
	}
	return month, nil
}
