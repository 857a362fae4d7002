package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cetinnova/registro-escolar/internal/models"
	"github.com/cetinnova/registro-escolar/internal/service"
	"github.com/cetinnova/registro-escolar/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	Options(ctx context.Context, modality, shift string) (*models.StudentFilterOptions, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, req service.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req service.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

type rosterExporter interface {
	Export(ctx context.Context, filter models.StudentFilter, format string) (*service.RosterFile, error)
}

// StudentHandler exposes student registration and roster endpoints.
type StudentHandler struct {
	students studentService
	exports  rosterExporter
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, exports rosterExporter) *StudentHandler {
	return &StudentHandler{students: students, exports: exports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by nombre or apellidos"
// @Param grado query string false "Exact grade"
// @Param jornada query string false "Exact shift"
// @Param modalidad query string false "Exact modality"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context(), studentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, &models.Pagination{Page: 1, PageSize: len(students), TotalCount: len(students)})
}

// Options godoc
// @Summary Cascading roster filter values
// @Tags Students
// @Produce json
// @Param modalidad query string false "Selected modality"
// @Param jornada query string false "Selected shift"
// @Success 200 {object} response.Envelope
// @Router /students/options [get]
func (h *StudentHandler) Options(c *gin.Context) {
	opts, err := h.students.Options(c.Request.Context(), c.Query("modalidad"), c.Query("jornada"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opts, nil)
}

// Catalog godoc
// @Summary Registration form catalogue
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/catalog [get]
func (h *StudentHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, service.Catalog(), nil)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204 {string} string ""
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export roster
// @Description Excel workbook (one sheet per grade, shift and modality) or CSV of the filtered roster
// @Tags Students
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "xlsx or csv"
// @Param grado query string false "Exact grade"
// @Param jornada query string false "Exact shift"
// @Param modalidad query string false "Exact modality"
// @Success 200 {file} file
// @Failure 422 {object} response.Envelope
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	file, err := h.exports.Export(c.Request.Context(), studentFilterFromQuery(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
