package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/ledger"
	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
	"github.com/cetinnova/registro-escolar/pkg/export"
)

type receiptStore interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Receipt, error)
	DeleteByPaths(ctx context.Context, paths []string) (int64, error)
}

type receiptFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type receiptSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

type receiptRenderer interface {
	Render(rc export.Receipt) ([]byte, error)
}

// ReceiptServiceConfig holds receipt storage parameters.
type ReceiptServiceConfig struct {
	APIPrefix string
	Retention time.Duration
}

// ReceiptFile is a stored receipt ready to be streamed.
type ReceiptFile struct {
	Filename  string
	Data      []byte
	ExpiresAt time.Time
}

// ReceiptService renders, stores and serves payment receipts. The archive
// store is optional; without it receipts are only reachable through the
// signed URL returned at issue time.
type ReceiptService struct {
	repo     receiptStore
	storage  receiptFileStorage
	signer   receiptSigner
	renderer receiptRenderer
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ReceiptServiceConfig
}

// NewReceiptService constructs the service with defaults.
func NewReceiptService(repo receiptStore, storage receiptFileStorage, signer receiptSigner, renderer receiptRenderer, metrics *MetricsService, logger *zap.Logger, cfg ReceiptServiceConfig) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &ReceiptService{
		repo:     repo,
		storage:  storage,
		signer:   signer,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Issue renders the receipt of a confirmed payment, stores it and returns a signed download link.
func (s *ReceiptService) Issue(ctx context.Context, outcome *ledger.Outcome, actor string) (*models.ReceiptDocument, error) {
	if outcome == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "missing payment outcome")
	}
	doc, err := s.issue(ctx, outcome, actor)
	s.metrics.RecordReceipt(string(outcome.Kind), err)
	return doc, err
}

func (s *ReceiptService) issue(ctx context.Context, outcome *ledger.Outcome, actor string) (*models.ReceiptDocument, error) {
	rc := ReceiptFromOutcome(outcome)
	data, err := s.renderer.Render(rc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "no se pudo generar el recibo")
	}

	id := uuid.NewString()
	filename := ReceiptFilename(outcome)
	relPath := path.Join(safeSegment(outcome.Student.ID.String()), id, filename)
	if _, err := s.storage.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "no se pudo guardar el recibo")
	}

	if s.repo != nil {
		amount := outcome.AmountPaid
		if outcome.Kind == models.ReceiptKindTuition || outcome.Kind == models.ReceiptKindCourse {
			amount = outcome.Total
		}
		record := &models.Receipt{
			ID:            id,
			StudentID:     outcome.Student.ID.String(),
			ReceiptNumber: rc.Number,
			Kind:          outcome.Kind,
			Concept:       rc.Concept,
			Amount:        amount.StringFixed(2),
			FilePath:      relPath,
			CreatedBy:     actor,
			CreatedAt:     outcome.RecordedAt.UTC(),
		}
		start := time.Now()
		err := s.repo.Create(ctx, record)
		s.metrics.ObserveDBQuery("receipts_create", time.Since(start))
		if err != nil {
			// The payment is already confirmed upstream; losing the archive row only hides it from listings.
			s.logger.Error("archive receipt failed", zap.String("receipt_number", rc.Number), zap.Error(err))
		}
	}

	url, expiresAt, err := s.signedURL(id, relPath)
	if err != nil {
		return nil, err
	}

	s.logger.Info("receipt issued",
		zap.String("receipt_number", rc.Number),
		zap.String("kind", string(outcome.Kind)),
		zap.String("student_id", outcome.Student.ID.String()),
	)
	return &models.ReceiptDocument{
		ID:            id,
		ReceiptNumber: rc.Number,
		Filename:      filename,
		URL:           url,
		ExpiresAt:     expiresAt,
	}, nil
}

// Download resolves a signed token into the stored file.
func (s *ReceiptService) Download(ctx context.Context, token string) (*ReceiptFile, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "enlace de descarga inválido o expirado")
	}
	data, err := s.storage.Read(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recibo no encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "no se pudo leer el recibo")
	}
	return &ReceiptFile{Filename: path.Base(relPath), Data: data, ExpiresAt: expiresAt}, nil
}

// ListByStudent returns archived receipts of a student with fresh download links.
func (s *ReceiptService) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Receipt, error) {
	if s.repo == nil {
		return []models.Receipt{}, nil
	}
	start := time.Now()
	receipts, err := s.repo.ListByStudent(ctx, studentID, limit)
	s.metrics.ObserveDBQuery("receipts_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receipts")
	}
	for i := range receipts {
		url, _, err := s.signedURL(receipts[i].ID, receipts[i].FilePath)
		if err != nil {
			return nil, err
		}
		receipts[i].URL = url
	}
	if receipts == nil {
		receipts = []models.Receipt{}
	}
	return receipts, nil
}

// Cleanup removes stored receipts older than the retention window and their archive rows.
func (s *ReceiptService) Cleanup(ctx context.Context) (int, error) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		return 0, err
	}
	if len(deleted) > 0 && s.repo != nil {
		start := time.Now()
		_, err := s.repo.DeleteByPaths(ctx, deleted)
		s.metrics.ObserveDBQuery("receipts_cleanup", time.Since(start))
		if err != nil {
			return len(deleted), err
		}
	}
	return len(deleted), nil
}

// StartCleanup runs Cleanup every interval until ctx is cancelled.
func (s *ReceiptService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Cleanup(ctx)
				if err != nil {
					s.logger.Warn("receipt cleanup failed", zap.Error(err))
					continue
				}
				if n > 0 {
					s.logger.Info("receipt cleanup", zap.Int("deleted", n))
				}
			}
		}
	}()
}

func (s *ReceiptService) signedURL(id, relPath string) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	return fmt.Sprintf("%s/receipts/download/%s", base, token), expiresAt, nil
}

// ReceiptFromOutcome maps a confirmed payment onto the printed receipt.
func ReceiptFromOutcome(o *ledger.Outcome) export.Receipt {
	rc := export.Receipt{
		Number:        o.ReceiptNumber,
		Date:          o.RecordedAt,
		StudentName:   o.Student.FullName(),
		Grade:         o.Student.Grade,
		Shift:         o.Student.Shift,
		Modality:      o.Student.Modality,
		PaymentMethod: o.PaymentMethod,
		Concept:       o.Concept,
		Total:         o.Total,
		AmountPaid:    o.AmountPaid,
		Paid:          o.Paid,
		Pending:       o.Pending,
		IsAbono:       o.IsAbono,
	}
	if rc.Number == "" {
		rc.Number = "S/N"
	}

	switch o.Kind {
	case models.ReceiptKindGraduation:
		rc.FirstTitle = export.TitleConstanciaGraduacion
		rc.Section = "DETALLE DEL PAGO DE GRADUACIÓN:"
	case models.ReceiptKindTuition:
		rc.Monthly = true
		rc.Month = o.Month.Title()
		rc.Amount = o.Amount
		rc.Mora = o.Mora
	case models.ReceiptKindCourse:
		rc.Monthly = true
		rc.Month = o.Month.Title()
		rc.Amount = o.Amount
		rc.Mora = o.Mora
		rc.GradeLabel = "Curso"
		if name := o.Student.CourseName(); name != "" {
			rc.Grade = name
		}
	}
	return rc
}

// ReceiptFilename names the PDF after the payment kind and receipt number.
func ReceiptFilename(o *ledger.Outcome) string {
	number := safeSegment(o.ReceiptNumber)
	switch o.Kind {
	case models.ReceiptKindGraduation:
		return "Recibo_Graduacion_" + number + ".pdf"
	case models.ReceiptKindTuition:
		return "Recibo_Colegiatura_" + number + ".pdf"
	case models.ReceiptKindCourse:
		return "Recibo_Curso_" + number + ".pdf"
	default:
		return "Recibo_" + string(o.Category) + "_" + number + ".pdf"
	}
}

func safeSegment(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "SN"
	}
	return b.String()
}
