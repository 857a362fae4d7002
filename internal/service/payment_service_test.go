package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/fees"
	"github.com/cetinnova/registro-escolar/internal/ledger"
	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

type stubReceiptIssuer struct {
	outcomes []*ledger.Outcome
	actors   []string
	err      error
}

func (s *stubReceiptIssuer) Issue(ctx context.Context, outcome *ledger.Outcome, actor string) (*models.ReceiptDocument, error) {
	s.outcomes = append(s.outcomes, outcome)
	s.actors = append(s.actors, actor)
	if s.err != nil {
		return nil, s.err
	}
	return &models.ReceiptDocument{ID: "r1", ReceiptNumber: outcome.ReceiptNumber, URL: "/api/v1/receipts/download/tok"}, nil
}

var paymentClock = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestPaymentService(school *fakeSchool, issuer *stubReceiptIssuer) *PaymentService {
	svc := NewPaymentService(school, nil, issuer, nil, zap.NewNop(), PaymentServiceConfig{SessionTTL: time.Hour})
	svc.now = func() time.Time { return paymentClock }
	return svc
}

func TestPaymentServiceSearchScopes(t *testing.T) {
	school := newFakeSchool()
	svc := newTestPaymentService(school, nil)
	ctx := context.Background()

	_, err := svc.Search(ctx, SearchPayments, "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, school.count("search_pagos"))

	hits, err := svc.Search(ctx, SearchPayments, "ana")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ana", hits[0].FirstName)

	hits, err = svc.Search(ctx, SearchCourses, "luis")
	require.NoError(t, err)
	assert.Equal(t, "Luis", hits[0].FirstName)

	hits, err = svc.Search(ctx, SearchUniforms, "x")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	_, err = svc.Search(ctx, SearchScope("otro"), "x")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestPaymentServiceRequiresSelection(t *testing.T) {
	svc := newTestPaymentService(newFakeSchool(), nil)

	_, err := svc.View(context.Background(), "u1", "1")
	assert.True(t, errors.Is(err, appErrors.ErrNoStudentSelected))

	_, err = svc.RecordFlatFee(context.Background(), "u1", "1", models.FeeEnrollment, FlatFeePaymentRequest{
		Total: dec("500"), Abono: dec("500"), PaymentMethodID: 1,
	})
	assert.True(t, errors.Is(err, appErrors.ErrNoStudentSelected))
}

func TestPaymentServiceFlatFeeIssuesReceipt(t *testing.T) {
	school := newFakeSchool()
	issuer := &stubReceiptIssuer{}
	svc := newTestPaymentService(school, issuer)
	ctx := context.Background()

	view, err := svc.Select(ctx, "u1", "1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", view.Student.FirstName)
	assert.Len(t, view.Categories, len(models.FlatFeeCategories))

	result, err := svc.RecordFlatFee(ctx, "u1", "1", models.FeeEnrollment, FlatFeePaymentRequest{
		Total: dec("500"), Abono: dec("300"), PaymentMethodID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Depósito", result.Payment.PaymentMethod)
	assert.True(t, result.Payment.Pending.Equal(dec("200")))
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "2001", result.Receipt.ReceiptNumber)
	assert.Equal(t, []string{"u1"}, issuer.actors)
	assert.Empty(t, result.ReceiptError)

	var enrollment ledger.CategoryView
	for _, cv := range result.Ledger.Categories {
		if cv.Category == models.FeeEnrollment {
			enrollment = cv
		}
	}
	assert.Equal(t, fees.StatePartiallyPaid, enrollment.State)

	result, err = svc.RecordFlatFee(ctx, "u1", "1", models.FeeEnrollment, FlatFeePaymentRequest{Abono: dec("200"), PaymentMethodID: 1})
	require.NoError(t, err)
	assert.True(t, result.Payment.Settled)
	assert.True(t, result.Payment.IsAbono)
	assert.True(t, school.flatInputs[1].PendingPayment)

	_, err = svc.RecordFlatFee(ctx, "u1", "1", models.FeeEnrollment, FlatFeePaymentRequest{Abono: dec("1"), PaymentMethodID: 1})
	assert.True(t, errors.Is(err, appErrors.ErrPaymentSettled))
}

func TestPaymentServiceReceiptFailureKeepsPayment(t *testing.T) {
	school := newFakeSchool()
	issuer := &stubReceiptIssuer{err: errors.New("disk full")}
	svc := newTestPaymentService(school, issuer)
	ctx := context.Background()

	_, err := svc.Select(ctx, "u1", "1")
	require.NoError(t, err)

	result, err := svc.RecordTuition(ctx, "u1", "1", MonthlyPaymentRequest{Month: "marzo", Amount: dec("350"), PaymentMethodID: 1})
	require.NoError(t, err)
	assert.Nil(t, result.Receipt)
	assert.NotEmpty(t, result.ReceiptError)
	assert.True(t, result.Payment.Mora.Equal(fees.LateFee))
	assert.True(t, result.Payment.Total.Equal(dec("380")))
	assert.Len(t, school.tuition, 1)
}

func TestPaymentServiceTuitionDuplicateMonth(t *testing.T) {
	school := newFakeSchool()
	school.tuition = []models.TuitionPayment{{Month: "ENERO", Amount: dec("350"), Total: dec("350")}}
	svc := newTestPaymentService(school, &stubReceiptIssuer{})
	ctx := context.Background()

	view, err := svc.Select(ctx, "u1", "1")
	require.NoError(t, err)
	for _, option := range view.Tuition.Available {
		assert.NotEqual(t, "ENERO", option.Name)
	}

	_, err = svc.RecordTuition(ctx, "u1", "1", MonthlyPaymentRequest{MonthID: 1, Amount: dec("350"), PaymentMethodID: 1})
	assert.True(t, errors.Is(err, appErrors.ErrMonthAlreadyPaid))
	assert.Zero(t, school.count("record_tuition"))

	_, err = svc.RecordTuition(ctx, "u1", "1", MonthlyPaymentRequest{Month: "Brumario", Amount: dec("350"), PaymentMethodID: 1})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestPaymentServiceCourseDefaultsFee(t *testing.T) {
	school := newFakeSchool()
	svc := newTestPaymentService(school, &stubReceiptIssuer{})
	ctx := context.Background()

	_, err := svc.Select(ctx, "u1", "2")
	require.NoError(t, err)

	result, err := svc.RecordCourse(ctx, "u1", "2", MonthlyPaymentRequest{MonthID: 2, PaymentMethodID: 1})
	require.NoError(t, err)
	require.Len(t, school.courseInputs, 1)
	assert.True(t, school.courseInputs[0].Amount.Equal(decimal.NewFromInt(150)))
	assert.True(t, school.courseInputs[0].Mora.Equal(fees.LateFee))
	assert.Equal(t, "Efectivo", result.Payment.PaymentMethod)
	assert.Equal(t, "4001", result.Payment.ReceiptNumber)
}

func TestPaymentServiceGraduation(t *testing.T) {
	school := newFakeSchool()
	school.students["3"] = models.Student{ID: "3", FirstName: "Marta", Grade: "6to. PCB", Shift: "Matutina", Modality: "Diario"}
	svc := newTestPaymentService(school, &stubReceiptIssuer{})
	ctx := context.Background()

	view, err := svc.Select(ctx, "u1", "3")
	require.NoError(t, err)
	assert.True(t, view.Graduation.Eligible)

	result, err := svc.RecordGraduation(ctx, "u1", "3", GraduationPaymentRequest{Total: dec("800"), Abono: dec("800"), PaymentMethodID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptKindGraduation, result.Payment.Kind)
	assert.True(t, result.Payment.Settled)
}

func TestPaymentServiceSessionsArePerActorAndExpire(t *testing.T) {
	school := newFakeSchool()
	svc := newTestPaymentService(school, nil)
	ctx := context.Background()

	_, err := svc.Select(ctx, "u1", "1")
	require.NoError(t, err)
	_, err = svc.Select(ctx, "u2", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Sessions())

	_, err = svc.View(ctx, "u3", "1")
	assert.True(t, errors.Is(err, appErrors.ErrNoStudentSelected))

	svc.now = func() time.Time { return paymentClock.Add(2 * time.Hour) }
	_, err = svc.View(ctx, "u1", "1")
	assert.True(t, errors.Is(err, appErrors.ErrNoStudentSelected))
	assert.Zero(t, svc.Sessions())
}

func TestPaymentServiceMoraPreview(t *testing.T) {
	svc := newTestPaymentService(newFakeSchool(), nil)

	preview, err := svc.MoraPreview(0, "marzo", dec("350"))
	require.NoError(t, err)
	assert.Equal(t, 3, preview.Month)
	assert.True(t, preview.Applies)
	assert.True(t, preview.Total.Equal(dec("380")))

	preview, err = svc.MoraPreview(1, "", dec("350"))
	require.NoError(t, err)
	assert.False(t, preview.Applies)
	assert.True(t, preview.Total.Equal(dec("350")))

	_, err = svc.MoraPreview(13, "", dec("1"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestPaymentServiceMethodsAreCached(t *testing.T) {
	school := newFakeSchool()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc := NewPaymentService(school, cache, nil, nil, nil, PaymentServiceConfig{})

	for i := 0; i < 3; i++ {
		methods, err := svc.PaymentMethods(context.Background())
		require.NoError(t, err)
		assert.Len(t, methods, 2)
	}
	assert.Equal(t, 1, school.count("methods"))
}
