package backend

import (
	"context"
	"net/http"

	"github.com/cetinnova/registro-escolar/internal/models"
)

// SearchPaymentStudents finds students by name in the payments context.
func (c *Client) SearchPaymentStudents(ctx context.Context, name string) ([]models.Student, error) {
	var students []models.Student
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "payments_search",
		path:     "/pagos/buscar",
		query:    nameQuery(name),
	}, &students)
	return students, err
}

// PaymentMethods lists the accepted payment methods.
func (c *Client) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := c.get(ctx, call{method: http.MethodGet, endpoint: "payment_methods", path: "/pagos/metodos-pago"}, &methods)
	return methods, err
}

// StudentPayments returns the flat-fee records of a student keyed by category.
// Categories without a record are absent or nil.
func (c *Client) StudentPayments(ctx context.Context, studentID string) (map[models.FeeCategory]*models.PaymentRecord, error) {
	var raw map[string]*models.PaymentRecord
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "payments_by_student",
		path:     idPath("/pagos/estudiante/%s", studentID),
	}, &raw)
	if err != nil {
		return nil, err
	}
	records := make(map[models.FeeCategory]*models.PaymentRecord, len(raw))
	for key, record := range raw {
		category := models.FeeCategory(key)
		if !category.Valid() || record == nil {
			continue
		}
		records[category] = record
	}
	return records, nil
}

// FlatFee reads the record of one category. A nil record means none exists.
func (c *Client) FlatFee(ctx context.Context, studentID string, category models.FeeCategory) (*models.PaymentRecord, error) {
	var record *models.PaymentRecord
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "payments_flat_get",
		path:     idPath("/pagos/estudiante/%s/%s", studentID, string(category)),
	}, &record)
	return record, err
}

// RecordFlatFee registers or pays an abono on a flat-fee category.
func (c *Client) RecordFlatFee(ctx context.Context, studentID string, category models.FeeCategory, input models.FlatFeePaymentInput) (*models.FlatFeePaymentResult, error) {
	var result models.FlatFeePaymentResult
	err := c.send(ctx, call{
		method:   http.MethodPost,
		endpoint: "payments_flat_post",
		path:     idPath("/pagos/estudiante/%s/%s", studentID, string(category)),
		body:     input,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GraduationStatus reads eligibility and the graduation record.
func (c *Client) GraduationStatus(ctx context.Context, studentID string) (*models.GraduationStatus, error) {
	var status models.GraduationStatus
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "graduation_get",
		path:     idPath("/pagos/graduacion/%s", studentID),
	}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// RecordGraduation registers or pays an abono on the graduation fee.
func (c *Client) RecordGraduation(ctx context.Context, studentID string, input models.GraduationPaymentInput) (*models.GraduationPaymentResult, error) {
	var result models.GraduationPaymentResult
	err := c.send(ctx, call{
		method:   http.MethodPost,
		endpoint: "graduation_post",
		path:     idPath("/pagos/graduacion/%s", studentID),
		body:     input,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TuitionHistory lists the tuition months a student already paid.
func (c *Client) TuitionHistory(ctx context.Context, studentID string) ([]models.TuitionPayment, error) {
	var history []models.TuitionPayment
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "tuition_get",
		path:     idPath("/pagos/colegiaturas/%s", studentID),
	}, &history)
	return history, err
}

// RecordTuition pays one tuition month.
func (c *Client) RecordTuition(ctx context.Context, studentID string, input models.TuitionPaymentInput) (*models.TuitionPaymentResult, error) {
	var result models.TuitionPaymentResult
	err := c.send(ctx, call{
		method:   http.MethodPost,
		endpoint: "tuition_post",
		path:     idPath("/pagos/colegiaturas/%s", studentID),
		body:     input,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
