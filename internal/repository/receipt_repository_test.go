package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetinnova/registro-escolar/internal/models"
)

var receiptColumns = []string{"id", "student_id", "receipt_number", "kind", "concept", "amount", "file_path", "created_by", "created_at"}

func newReceiptRepoMock(t *testing.T) (*ReceiptRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReceiptRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestReceiptRepositoryCreateAndGet(t *testing.T) {
	repo, mock := newReceiptRepoMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO receipts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	receipt := &models.Receipt{
		StudentID:     "12",
		ReceiptNumber: "1001",
		Kind:          models.ReceiptKindFlatFee,
		Concept:       "Pago Inscripción",
		Amount:        "500.00",
		FilePath:      "12/Recibo_inscripcion_1001.pdf",
		CreatedBy:     "admin",
	}
	require.NoError(t, repo.Create(context.Background(), receipt))
	assert.NotEmpty(t, receipt.ID)
	assert.False(t, receipt.CreatedAt.IsZero())

	rows := sqlmock.NewRows(receiptColumns).
		AddRow(receipt.ID, "12", "1001", "FLAT_FEE", "Pago Inscripción", "500.00", receipt.FilePath, "admin", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, receipt_number")).
		WithArgs(receipt.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), receipt.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.ReceiptKindFlatFee, found.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryGetMissing(t *testing.T) {
	repo, mock := newReceiptRepoMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(receiptColumns))

	found, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestReceiptRepositoryListByStudentClampsLimit(t *testing.T) {
	repo, mock := newReceiptRepoMock(t)
	rows := sqlmock.NewRows(receiptColumns).
		AddRow("r-1", "12", "B-1", "TUITION", "Colegiatura", "380.00", "12/a.pdf", "admin", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM receipts WHERE student_id = $1")).
		WithArgs("12", 50).
		WillReturnRows(rows)

	receipts, err := repo.ListByStudent(context.Background(), "12", 0)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "B-1", receipts[0].ReceiptNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryDeleteByPaths(t *testing.T) {
	repo, mock := newReceiptRepoMock(t)

	affected, err := repo.DeleteByPaths(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, affected)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM receipts WHERE file_path IN ($1, $2)")).
		WithArgs("a.pdf", "b.pdf").
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err = repo.DeleteByPaths(context.Background(), []string{"a.pdf", "b.pdf"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryEnsureSchema(t *testing.T) {
	repo, mock := newReceiptRepoMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS receipts")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
