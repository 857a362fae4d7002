package models

import "time"

// ReceiptKind tells which payment flow produced a receipt.
type ReceiptKind string

// Receipt kinds.
const (
	ReceiptKindFlatFee    ReceiptKind = "FLAT_FEE"
	ReceiptKindTuition    ReceiptKind = "TUITION"
	ReceiptKindCourse     ReceiptKind = "COURSE"
	ReceiptKindGraduation ReceiptKind = "GRADUATION"
)

// Receipt is the archived metadata of a generated receipt PDF.
type Receipt struct {
	ID            string      `db:"id" json:"id"`
	StudentID     string      `db:"student_id" json:"student_id"`
	ReceiptNumber string      `db:"receipt_number" json:"receipt_number"`
	Kind          ReceiptKind `db:"kind" json:"kind"`
	Concept       string      `db:"concept" json:"concept"`
	Amount        string      `db:"amount" json:"amount"`
	FilePath      string      `db:"file_path" json:"-"`
	CreatedBy     string      `db:"created_by" json:"created_by"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	URL           string      `db:"-" json:"url,omitempty"`
}

// ReceiptDocument is returned after a receipt has been rendered and stored.
type ReceiptDocument struct {
	ID            string    `json:"id"`
	ReceiptNumber string    `json:"receipt_number"`
	Filename      string    `json:"filename"`
	URL           string    `json:"url"`
	ExpiresAt     time.Time `json:"expires_at"`
}
