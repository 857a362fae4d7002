package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cetinnova/registro-escolar/internal/models"
)

// ExtraCourses lists the extracurricular course catalogue.
func (c *Client) ExtraCourses(ctx context.Context) ([]models.ExtraCourse, error) {
	var courses []models.ExtraCourse
	err := c.get(ctx, call{method: http.MethodGet, endpoint: "courses_list", path: "/cursos/cursos-extra"}, &courses)
	return courses, err
}

// SearchCourseStudents finds students enrolled in a course by name.
func (c *Client) SearchCourseStudents(ctx context.Context, name string) ([]models.Student, error) {
	var students []models.Student
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "courses_search",
		path:     "/cursos/estudiantes-cursos/buscar",
		query:    nameQuery(name),
	}, &students)
	return students, err
}

// CourseMonths returns the month catalogue used by course payments.
func (c *Client) CourseMonths(ctx context.Context) ([]models.CourseMonth, error) {
	var months []models.CourseMonth
	err := c.get(ctx, call{method: http.MethodGet, endpoint: "courses_months", path: "/cursos/meses"}, &months)
	return months, err
}

// CoursePayments lists the course months a student already paid.
func (c *Client) CoursePayments(ctx context.Context, studentID string) ([]models.CoursePayment, error) {
	var payments []models.CoursePayment
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "course_payments_get",
		path:     idPath("/cursos/pagos-curso/%s", studentID),
	}, &payments)
	return payments, err
}

// RecordCoursePayment pays one course month. The backend returns the record
// either under "data" or flattened next to the receipt number.
func (c *Client) RecordCoursePayment(ctx context.Context, input models.CoursePaymentInput) (*models.CoursePaymentResult, error) {
	body, err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "course_payments_post",
		path:     "/cursos/pagos-curso",
		body:     input,
	})
	if err != nil {
		return nil, err
	}
	var result models.CoursePaymentResult
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, decodeError(err)
		}
		if result.Payment.MonthID == 0 {
			if err := json.Unmarshal(body, &result.Payment); err != nil {
				return nil, decodeError(err)
			}
		}
	}
	if result.Payment.MonthID == 0 {
		result.Payment.MonthID = input.MonthID
	}
	return &result, nil
}

// CourseSummary aggregates paid and pending course months.
func (c *Client) CourseSummary(ctx context.Context, studentID string) (*models.CourseSummary, error) {
	var summary models.CourseSummary
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "course_summary",
		path:     idPath("/cursos/pagos-curso/resumen/%s", studentID),
	}, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
