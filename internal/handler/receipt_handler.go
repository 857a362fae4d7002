package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cetinnova/registro-escolar/internal/models"
	"github.com/cetinnova/registro-escolar/internal/service"
	"github.com/cetinnova/registro-escolar/pkg/response"
)

const defaultReceiptLimit = 50

type receiptService interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Receipt, error)
	Download(ctx context.Context, token string) (*service.ReceiptFile, error)
}

// ReceiptHandler lists archived receipts and serves signed downloads.
type ReceiptHandler struct {
	receipts receiptService
}

// NewReceiptHandler constructs ReceiptHandler.
func NewReceiptHandler(receipts receiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// ListByStudent godoc
// @Summary Archived receipts of a student
// @Tags Receipts
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /receipts/students/{id} [get]
func (h *ReceiptHandler) ListByStudent(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	if limit <= 0 {
		limit = defaultReceiptLimit
	}
	receipts, err := h.receipts.ListByStudent(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipts, nil)
}

// Download godoc
// @Summary Download a receipt PDF
// @Tags Receipts
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /receipts/download/{token} [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	file, err := h.receipts.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, "application/pdf", file.Data)
}
