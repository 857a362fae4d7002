package backend

import (
	"context"
	"net/http"

	"github.com/cetinnova/registro-escolar/internal/models"
)

// SearchUniformStudents finds students by name in the uniforms context.
func (c *Client) SearchUniformStudents(ctx context.Context, name string) ([]models.Student, error) {
	var students []models.Student
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "uniforms_search",
		path:     "/uniformes/buscar",
		query:    nameQuery(name),
	}, &students)
	return students, err
}

// UniformCategories lists all uniform categories with their items.
func (c *Client) UniformCategories(ctx context.Context) ([]models.UniformCategory, error) {
	var categories []models.UniformCategory
	err := c.get(ctx, call{method: http.MethodGet, endpoint: "uniforms_categories", path: "/uniformes/categorias"}, &categories)
	return categories, err
}

// StudentUniformCategory returns the category assigned to a student, or nil.
// The backend answers with either a single object or a one-element list.
func (c *Client) StudentUniformCategory(ctx context.Context, studentID string) (*models.UniformCategory, error) {
	body, err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: "uniforms_student_category",
		path:     idPath("/uniformes/categorias/estudiante/%s", studentID),
	})
	if err != nil {
		return nil, err
	}
	var list []models.UniformCategory
	if err := decodeData(body, &list); err == nil {
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}
	var single *models.UniformCategory
	if err := decodeData(body, &single); err != nil {
		return nil, err
	}
	if single != nil && single.ID == "" && single.Name == "" {
		return nil, nil
	}
	return single, nil
}

// UniformSizes lists the sizes registered for a student.
func (c *Client) UniformSizes(ctx context.Context, studentID string) ([]models.UniformSize, error) {
	var sizes []models.UniformSize
	err := c.get(ctx, call{
		method:   http.MethodGet,
		endpoint: "uniforms_sizes_get",
		path:     idPath("/uniformes/tallas/%s", studentID),
	}, &sizes)
	return sizes, err
}

// SaveUniformSizes stores the sizes of a student.
func (c *Client) SaveUniformSizes(ctx context.Context, studentID string, sizes []models.UniformSizeInput) ([]models.UniformSize, error) {
	body, err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "uniforms_sizes_post",
		path:     idPath("/uniformes/tallas/%s", studentID),
		body:     map[string]interface{}{"tallas": sizes},
	})
	if err != nil {
		return nil, err
	}
	var saved []models.UniformSize
	if err := decodeData(body, &saved); err != nil {
		// Older deployments answer with a bare confirmation message.
		return nil, nil
	}
	return saved, nil
}

// DeleteUniformSize removes one registered size.
func (c *Client) DeleteUniformSize(ctx context.Context, sizeID string) error {
	_, err := c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: "uniforms_sizes_delete",
		path:     idPath("/uniformes/tallas/%s", sizeID),
	})
	return err
}
