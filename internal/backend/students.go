package backend

import (
	"context"
	"net/http"

	"github.com/cetinnova/registro-escolar/internal/models"
)

// ListStudents returns every active student.
func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := c.get(ctx, call{method: http.MethodGet, endpoint: "students_list", path: "/estudiantes"}, &students)
	return students, err
}

// GetStudent loads one student.
func (c *Client) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	err := c.get(ctx, call{method: http.MethodGet, endpoint: "students_get", path: idPath("/estudiantes/%s", id)}, &student)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// CreateStudent registers a student.
func (c *Client) CreateStudent(ctx context.Context, input models.StudentInput) (*models.Student, error) {
	var student models.Student
	body, err := c.do(ctx, call{method: http.MethodPost, endpoint: "students_create", path: "/estudiantes", body: input})
	if err != nil {
		return nil, err
	}
	if err := decodeData(body, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateStudent edits a student.
func (c *Client) UpdateStudent(ctx context.Context, id string, input models.StudentInput) (*models.Student, error) {
	var student models.Student
	body, err := c.do(ctx, call{method: http.MethodPut, endpoint: "students_update", path: idPath("/estudiantes/%s", id), body: input})
	if err != nil {
		return nil, err
	}
	if err := decodeData(body, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// DeleteStudent soft-deletes a student.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{method: http.MethodDelete, endpoint: "students_delete", path: idPath("/estudiantes/%s", id)})
	return err
}
