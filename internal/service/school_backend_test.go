package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

// fakeSchool is an in-memory stand-in for the school backend.
type fakeSchool struct {
	mu sync.Mutex

	students       map[string]models.Student
	records        map[models.FeeCategory]*models.PaymentRecord
	tuition        []models.TuitionPayment
	courseMonths   []models.CourseMonth
	coursePayments []models.CoursePayment
	methods        []models.PaymentMethod
	courses        []models.ExtraCourse
	summary        *models.CourseSummary
	uniformCats    []models.UniformCategory
	sizes          []models.UniformSize
	savedSizes     []models.UniformSizeInput

	listErr error
	calls   map[string]int

	flatInputs   []models.FlatFeePaymentInput
	courseInputs []models.CoursePaymentInput
	created      []models.StudentInput
	updated      []models.StudentInput
}

func newFakeSchool() *fakeSchool {
	return &fakeSchool{
		students: map[string]models.Student{
			"1": {ID: "1", FirstName: "Ana", LastName: "López", Grade: "5to PCB", Shift: "Matutina", Modality: "Diario"},
			"2": {ID: "2", FirstName: "Luis", LastName: "Pérez", Grade: "7mo", Shift: "Matutina", Modality: "Diario",
				ExtraCourseID: "9", ExtraCourse: &models.ExtraCourse{ID: "9", Name: "Computación"}},
		},
		records: map[models.FeeCategory]*models.PaymentRecord{},
		courseMonths: []models.CourseMonth{
			{ID: 1, Name: "Enero"}, {ID: 2, Name: "Febrero"}, {ID: 3, Name: "Marzo"},
		},
		methods: []models.PaymentMethod{{ID: 1, Name: "Efectivo"}, {ID: 2, Name: "Depósito"}},
		calls:   map[string]int{},
	}
}

func (f *fakeSchool) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeSchool) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSchool) ListStudents(ctx context.Context) ([]models.Student, error) {
	f.hit("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Student, 0, len(f.students))
	for _, id := range []string{"1", "2", "3", "4"} {
		if st, ok := f.students[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeSchool) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	f.hit("get")
	st, ok := f.students[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Estudiante no encontrado")
	}
	return &st, nil
}

func (f *fakeSchool) CreateStudent(ctx context.Context, input models.StudentInput) (*models.Student, error) {
	f.hit("create")
	f.created = append(f.created, input)
	return &models.Student{ID: "99", FirstName: input.FirstName, LastName: input.LastName, Grade: input.Grade, Shift: input.Shift, Modality: input.Modality}, nil
}

func (f *fakeSchool) UpdateStudent(ctx context.Context, id string, input models.StudentInput) (*models.Student, error) {
	f.hit("update")
	f.updated = append(f.updated, input)
	return &models.Student{ID: models.FlexString(id), FirstName: input.FirstName, Grade: input.Grade}, nil
}

func (f *fakeSchool) DeleteStudent(ctx context.Context, id string) error {
	f.hit("delete")
	return nil
}

func (f *fakeSchool) SearchPaymentStudents(ctx context.Context, name string) ([]models.Student, error) {
	f.hit("search_pagos")
	return []models.Student{f.students["1"]}, nil
}

func (f *fakeSchool) SearchCourseStudents(ctx context.Context, name string) ([]models.Student, error) {
	f.hit("search_cursos")
	return []models.Student{f.students["2"]}, nil
}

func (f *fakeSchool) SearchUniformStudents(ctx context.Context, name string) ([]models.Student, error) {
	f.hit("search_uniformes")
	return nil, nil
}

func (f *fakeSchool) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	f.hit("methods")
	return f.methods, nil
}

func (f *fakeSchool) StudentPayments(ctx context.Context, studentID string) (map[models.FeeCategory]*models.PaymentRecord, error) {
	f.hit("payments")
	return f.records, nil
}

func (f *fakeSchool) FlatFee(ctx context.Context, studentID string, category models.FeeCategory) (*models.PaymentRecord, error) {
	f.hit("flat_get")
	return f.records[category], nil
}

func (f *fakeSchool) RecordFlatFee(ctx context.Context, studentID string, category models.FeeCategory, input models.FlatFeePaymentInput) (*models.FlatFeePaymentResult, error) {
	f.hit("flat")
	f.flatInputs = append(f.flatInputs, input)
	paid := input.Abono
	if current := f.records[category]; input.PendingPayment && current != nil {
		paid = current.Paid.Add(input.Abono)
	}
	record := models.PaymentRecord{Total: input.Total, Paid: paid, Pending: input.Total.Sub(paid)}
	f.records[category] = &record
	return &models.FlatFeePaymentResult{
		Payment:       record,
		ReceiptNumber: "2001",
		Concept:       category.Label(),
		AmountPaid:    input.Abono,
		IsAbono:       input.PendingPayment,
	}, nil
}

func (f *fakeSchool) TuitionHistory(ctx context.Context, studentID string) ([]models.TuitionPayment, error) {
	f.hit("tuition")
	return f.tuition, nil
}

func (f *fakeSchool) RecordTuition(ctx context.Context, studentID string, input models.TuitionPaymentInput) (*models.TuitionPaymentResult, error) {
	f.hit("record_tuition")
	payment := models.TuitionPayment{Month: input.Month, Amount: input.Amount, Mora: input.Mora, Total: input.Amount.Add(input.Mora)}
	f.tuition = append(f.tuition, payment)
	return &models.TuitionPaymentResult{Payment: payment, ReceiptNumber: "3001", PaymentMethod: "Efectivo"}, nil
}

func (f *fakeSchool) CourseMonths(ctx context.Context) ([]models.CourseMonth, error) {
	f.hit("course_months")
	return f.courseMonths, nil
}

func (f *fakeSchool) CoursePayments(ctx context.Context, studentID string) ([]models.CoursePayment, error) {
	f.hit("course_payments")
	return f.coursePayments, nil
}

func (f *fakeSchool) RecordCoursePayment(ctx context.Context, input models.CoursePaymentInput) (*models.CoursePaymentResult, error) {
	f.hit("record_course")
	f.courseInputs = append(f.courseInputs, input)
	return &models.CoursePaymentResult{
		Payment:       models.CoursePayment{MonthID: input.MonthID, Amount: input.Amount, Mora: input.Mora},
		ReceiptNumber: "4001",
	}, nil
}

func (f *fakeSchool) GraduationStatus(ctx context.Context, studentID string) (*models.GraduationStatus, error) {
	f.hit("graduation")
	return &models.GraduationStatus{Eligible: true}, nil
}

func (f *fakeSchool) RecordGraduation(ctx context.Context, studentID string, input models.GraduationPaymentInput) (*models.GraduationPaymentResult, error) {
	f.hit("record_graduation")
	return &models.GraduationPaymentResult{
		Payment:       models.GraduationPayment{Total: input.Total, Paid: input.Abono, Pending: input.Total.Sub(input.Abono)},
		ReceiptNumber: "5001",
	}, nil
}

func (f *fakeSchool) ExtraCourses(ctx context.Context) ([]models.ExtraCourse, error) {
	f.hit("courses")
	return f.courses, nil
}

func (f *fakeSchool) CourseSummary(ctx context.Context, studentID string) (*models.CourseSummary, error) {
	f.hit("summary")
	return f.summary, nil
}

func (f *fakeSchool) UniformCategories(ctx context.Context) ([]models.UniformCategory, error) {
	f.hit("uniform_categories")
	return f.uniformCats, nil
}

func (f *fakeSchool) StudentUniformCategory(ctx context.Context, studentID string) (*models.UniformCategory, error) {
	f.hit("student_uniform_category")
	if len(f.uniformCats) == 0 {
		return nil, nil
	}
	return &f.uniformCats[0], nil
}

func (f *fakeSchool) UniformSizes(ctx context.Context, studentID string) ([]models.UniformSize, error) {
	f.hit("sizes")
	return f.sizes, nil
}

func (f *fakeSchool) SaveUniformSizes(ctx context.Context, studentID string, sizes []models.UniformSizeInput) ([]models.UniformSize, error) {
	f.hit("save_sizes")
	f.savedSizes = sizes
	return nil, nil
}

func (f *fakeSchool) DeleteUniformSize(ctx context.Context, sizeID string) error {
	f.hit("delete_size")
	return nil
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
