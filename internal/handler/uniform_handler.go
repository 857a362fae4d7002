package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cetinnova/registro-escolar/internal/models"
	"github.com/cetinnova/registro-escolar/internal/service"
	"github.com/cetinnova/registro-escolar/pkg/response"
)

type uniformService interface {
	Categories(ctx context.Context) ([]models.UniformCategory, error)
	StudentCategory(ctx context.Context, studentID string) (*models.UniformCategory, error)
	Sizes(ctx context.Context, studentID string) ([]models.UniformSize, error)
	SaveSizes(ctx context.Context, studentID string, req service.SaveUniformSizesRequest) ([]models.UniformSize, error)
	DeleteSize(ctx context.Context, sizeID string) error
}

// UniformHandler manages uniform categories and registered sizes.
type UniformHandler struct {
	uniforms uniformService
}

// NewUniformHandler constructs UniformHandler.
func NewUniformHandler(uniforms uniformService) *UniformHandler {
	return &UniformHandler{uniforms: uniforms}
}

// Categories godoc
// @Summary Uniform categories
// @Tags Uniforms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /uniforms/categories [get]
func (h *UniformHandler) Categories(c *gin.Context) {
	categories, err := h.uniforms.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// StudentCategory godoc
// @Summary Uniform category of a student
// @Tags Uniforms
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /uniforms/students/{id}/categories [get]
func (h *UniformHandler) StudentCategory(c *gin.Context) {
	category, err := h.uniforms.StudentCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Sizes godoc
// @Summary Registered sizes of a student
// @Tags Uniforms
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /uniforms/students/{id}/sizes [get]
func (h *UniformHandler) Sizes(c *gin.Context) {
	sizes, err := h.uniforms.Sizes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sizes, nil, meta("allowed_sizes", service.UniformSizes))
}

// SaveSizes godoc
// @Summary Save sizes of a student
// @Tags Uniforms
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.SaveUniformSizesRequest true "Sizes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /uniforms/students/{id}/sizes [post]
func (h *UniformHandler) SaveSizes(c *gin.Context) {
	var req service.SaveUniformSizesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	sizes, err := h.uniforms.SaveSizes(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sizes, nil)
}

// DeleteSize godoc
// @Summary Delete a registered size
// @Tags Uniforms
// @Param sizeId path string true "Size ID"
// @Success 204 {string} string ""
// @Router /uniforms/sizes/{sizeId} [delete]
func (h *UniformHandler) DeleteSize(c *gin.Context) {
	if err := h.uniforms.DeleteSize(c.Request.Context(), c.Param("sizeId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func meta(key string, value interface{}) map[string]interface{} {
	return map[string]interface{}{key: value}
}
