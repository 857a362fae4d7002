package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/fees"
	"github.com/cetinnova/registro-escolar/internal/ledger"
	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
	"github.com/cetinnova/registro-escolar/pkg/export"
	"github.com/cetinnova/registro-escolar/pkg/storage"
)

type receiptRepoStub struct {
	rows      []models.Receipt
	createErr error
	deleted   []string
}

func (r *receiptRepoStub) Create(ctx context.Context, receipt *models.Receipt) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.rows = append(r.rows, *receipt)
	return nil
}

func (r *receiptRepoStub) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Receipt, error) {
	var out []models.Receipt
	for _, row := range r.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *receiptRepoStub) DeleteByPaths(ctx context.Context, paths []string) (int64, error) {
	r.deleted = append(r.deleted, paths...)
	return int64(len(paths)), nil
}

type renderStub struct {
	last export.Receipt
	err  error
}

func (r *renderStub) Render(rc export.Receipt) ([]byte, error) {
	r.last = rc
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 " + rc.Number), nil
}

func tuitionOutcome() *ledger.Outcome {
	return &ledger.Outcome{
		Kind:          models.ReceiptKindTuition,
		Concept:       "Colegiatura",
		ReceiptNumber: "B-77",
		Student:       models.Student{ID: "12", FirstName: "Ana", LastName: "López", Grade: "7mo", Shift: "Matutina", Modality: "Diario"},
		PaymentMethod: "Efectivo",
		Month:         fees.Month(3),
		Amount:        dec("350"),
		Mora:          dec("30"),
		Total:         dec("380"),
		RecordedAt:    time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
}

func newTestReceiptService(t *testing.T, repo receiptStore, renderer receiptRenderer) (*ReceiptService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewReceiptService(repo, store, signer, renderer, nil, zap.NewNop(), ReceiptServiceConfig{APIPrefix: "/api/v1", Retention: time.Hour})
	return svc, dir
}

func TestReceiptServiceIssueAndDownload(t *testing.T) {
	repo := &receiptRepoStub{}
	renderer := &renderStub{}
	svc, _ := newTestReceiptService(t, repo, renderer)

	doc, err := svc.Issue(context.Background(), tuitionOutcome(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "B-77", doc.ReceiptNumber)
	assert.Equal(t, "Recibo_Colegiatura_B-77.pdf", doc.Filename)
	require.True(t, strings.HasPrefix(doc.URL, "/api/v1/receipts/download/"))

	require.Len(t, repo.rows, 1)
	assert.Equal(t, "12", repo.rows[0].StudentID)
	assert.Equal(t, "380.00", repo.rows[0].Amount)
	assert.Equal(t, "u1", repo.rows[0].CreatedBy)
	assert.Equal(t, doc.ID, repo.rows[0].ID)

	assert.True(t, renderer.last.Monthly)
	assert.Equal(t, "Marzo", renderer.last.Month)

	token := strings.TrimPrefix(doc.URL, "/api/v1/receipts/download/")
	file, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, file.Filename)
	assert.Equal(t, "%PDF-1.3 B-77", string(file.Data))

	_, err = svc.Download(context.Background(), token+"x")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestReceiptServiceArchiveFailureDoesNotFailIssue(t *testing.T) {
	repo := &receiptRepoStub{createErr: errors.New("db down")}
	svc, _ := newTestReceiptService(t, repo, &renderStub{})

	doc, err := svc.Issue(context.Background(), tuitionOutcome(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.URL)
}

func TestReceiptServiceRenderFailure(t *testing.T) {
	svc, _ := newTestReceiptService(t, nil, &renderStub{err: errors.New("font")})

	_, err := svc.Issue(context.Background(), tuitionOutcome(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestReceiptServiceListWithoutArchive(t *testing.T) {
	svc, _ := newTestReceiptService(t, nil, &renderStub{})

	receipts, err := svc.ListByStudent(context.Background(), "12", 0)
	require.NoError(t, err)
	assert.NotNil(t, receipts)
	assert.Empty(t, receipts)
}

func TestReceiptServiceListSignsURLs(t *testing.T) {
	repo := &receiptRepoStub{}
	svc, _ := newTestReceiptService(t, repo, &renderStub{})
	_, err := svc.Issue(context.Background(), tuitionOutcome(), "u1")
	require.NoError(t, err)

	receipts, err := svc.ListByStudent(context.Background(), "12", 10)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.True(t, strings.HasPrefix(receipts[0].URL, "/api/v1/receipts/download/"))
}

func TestReceiptServiceCleanupDropsArchiveRows(t *testing.T) {
	repo := &receiptRepoStub{}
	svc, dir := newTestReceiptService(t, repo, &renderStub{})
	_, err := svc.Issue(context.Background(), tuitionOutcome(), "u1")
	require.NoError(t, err)

	path := filepath.Join(dir, filepath.FromSlash(repo.rows[0].FilePath))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	n, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{repo.rows[0].FilePath}, repo.deleted)
}

func TestReceiptFromOutcome(t *testing.T) {
	grad := &ledger.Outcome{
		Kind:          models.ReceiptKindGraduation,
		Concept:       "Pago Graduación",
		ReceiptNumber: "9",
		Total:         dec("800"),
		AmountPaid:    dec("300"),
		Paid:          dec("300"),
		Pending:       dec("500"),
		IsAbono:       false,
	}
	rc := ReceiptFromOutcome(grad)
	assert.Equal(t, export.TitleConstanciaGraduacion, rc.FirstTitle)
	assert.Equal(t, "DETALLE DEL PAGO DE GRADUACIÓN:", rc.Section)
	assert.False(t, rc.Monthly)

	course := &ledger.Outcome{
		Kind:    models.ReceiptKindCourse,
		Student: models.Student{Grade: "7mo", ExtraCourseID: "4", ExtraCourse: &models.ExtraCourse{Name: "Computación"}},
		Month:   fees.Month(2),
	}
	rc = ReceiptFromOutcome(course)
	assert.Equal(t, "Curso", rc.GradeLabel)
	assert.Equal(t, "Computación", rc.Grade)
	assert.Equal(t, "Febrero", rc.Month)
	assert.Equal(t, "S/N", rc.Number)
}

func TestReceiptFilename(t *testing.T) {
	assert.Equal(t, "Recibo_inscripcion_1001.pdf", ReceiptFilename(&ledger.Outcome{Kind: models.ReceiptKindFlatFee, Category: models.FeeEnrollment, ReceiptNumber: "1001"}))
	assert.Equal(t, "Recibo_Graduacion_A_1.pdf", ReceiptFilename(&ledger.Outcome{Kind: models.ReceiptKindGraduation, ReceiptNumber: "A/1"}))
	assert.Equal(t, "Recibo_Curso_SN.pdf", ReceiptFilename(&ledger.Outcome{Kind: models.ReceiptKindCourse}))
}
