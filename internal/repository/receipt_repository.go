package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cetinnova/registro-escolar/internal/models"
)

const receiptSchema = `CREATE TABLE IF NOT EXISTS receipts (
	id UUID PRIMARY KEY,
	student_id TEXT NOT NULL,
	receipt_number TEXT NOT NULL,
	kind TEXT NOT NULL,
	concept TEXT NOT NULL,
	amount NUMERIC(12,2) NOT NULL,
	file_path TEXT NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS receipts_student_idx ON receipts (student_id, created_at DESC)`

// ReceiptRepository persists metadata of generated receipt PDFs.
type ReceiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository constructs the repository.
func NewReceiptRepository(db *sqlx.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// EnsureSchema creates the receipts table when missing.
func (r *ReceiptRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, receiptSchema); err != nil {
		return fmt.Errorf("ensure receipts schema: %w", err)
	}
	return nil
}

// Create stores one receipt row.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO receipts
	(id, student_id, receipt_number, kind, concept, amount, file_path, created_by, created_at)
	VALUES (:id, :student_id, :receipt_number, :kind, :concept, :amount, :file_path, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

// GetByID returns one receipt or nil when it does not exist.
func (r *ReceiptRepository) GetByID(ctx context.Context, id string) (*models.Receipt, error) {
	const query = `SELECT id, student_id, receipt_number, kind, concept, amount, file_path, created_by, created_at
	FROM receipts WHERE id = $1`
	var receipt models.Receipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return &receipt, nil
}

// ListByStudent returns the newest receipts of a student first.
func (r *ReceiptRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Receipt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `SELECT id, student_id, receipt_number, kind, concept, amount, file_path, created_by, created_at
	FROM receipts WHERE student_id = $1 ORDER BY created_at DESC LIMIT $2`
	var receipts []models.Receipt
	if err := r.db.SelectContext(ctx, &receipts, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return receipts, nil
}

// DeleteByPaths drops rows whose files were removed by storage cleanup.
func (r *ReceiptRepository) DeleteByPaths(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM receipts WHERE file_path IN (?)`, paths)
	if err != nil {
		return 0, fmt.Errorf("build receipt cleanup: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete receipts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check receipt cleanup rows: %w", err)
	}
	return affected, nil
}
