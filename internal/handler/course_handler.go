package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cetinnova/registro-escolar/internal/models"
	"github.com/cetinnova/registro-escolar/pkg/response"
)

type courseService interface {
	Courses(ctx context.Context) ([]models.ExtraCourse, error)
	Months(ctx context.Context) ([]models.CourseMonth, error)
	Summary(ctx context.Context, studentID string) (*models.CourseSummary, error)
}

// CourseHandler exposes the extra-course catalogue and per-student summary.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary Extra courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Months godoc
// @Summary Course month catalogue
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/months [get]
func (h *CourseHandler) Months(c *gin.Context) {
	months, err := h.courses.Months(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, months, nil)
}

// Summary godoc
// @Summary Course payment summary of a student
// @Tags Courses
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /courses/students/{id}/summary [get]
func (h *CourseHandler) Summary(c *gin.Context) {
	summary, err := h.courses.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
