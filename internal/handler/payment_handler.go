package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cetinnova/registro-escolar/internal/ledger"
	"github.com/cetinnova/registro-escolar/internal/models"
	"github.com/cetinnova/registro-escolar/internal/service"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
	"github.com/cetinnova/registro-escolar/pkg/response"
)

type paymentService interface {
	Search(ctx context.Context, scope service.SearchScope, name string) ([]models.Student, error)
	PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	Select(ctx context.Context, actor, studentID string) (*ledger.View, error)
	View(ctx context.Context, actor, studentID string) (*ledger.View, error)
	RecordFlatFee(ctx context.Context, actor, studentID string, category models.FeeCategory, req service.FlatFeePaymentRequest) (*service.PaymentResult, error)
	RecordGraduation(ctx context.Context, actor, studentID string, req service.GraduationPaymentRequest) (*service.PaymentResult, error)
	RecordTuition(ctx context.Context, actor, studentID string, req service.MonthlyPaymentRequest) (*service.PaymentResult, error)
	RecordCourse(ctx context.Context, actor, studentID string, req service.MonthlyPaymentRequest) (*service.PaymentResult, error)
	MoraPreview(monthID int, monthName string, amount decimal.Decimal) (*models.MoraPreview, error)
}

// PaymentHandler serves the payments screen.
type PaymentHandler struct {
	payments paymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Search godoc
// @Summary Search students by name
// @Tags Payments
// @Produce json
// @Param nombre query string true "Name fragment"
// @Param scope query string false "pagos, cursos or uniformes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/search [get]
func (h *PaymentHandler) Search(c *gin.Context) {
	h.search(c, service.SearchScope(c.Query("scope")))
}

// SearchIn binds the search box of another screen, e.g. /courses/search.
func (h *PaymentHandler) SearchIn(scope service.SearchScope) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.search(c, scope)
	}
}

func (h *PaymentHandler) search(c *gin.Context, scope service.SearchScope) {
	students, err := h.payments.Search(c.Request.Context(), scope, c.Query("nombre"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Methods godoc
// @Summary Payment methods
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payments/methods [get]
func (h *PaymentHandler) Methods(c *gin.Context) {
	methods, err := h.payments.PaymentMethods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, methods, nil)
}

// Select godoc
// @Summary Select a student for payment
// @Description Loads every balance of the student into the operator's ledger
// @Tags Payments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /payments/students/{id}/select [post]
func (h *PaymentHandler) Select(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.payments.Select(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// View godoc
// @Summary Current ledger of the selected student
// @Tags Payments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/students/{id} [get]
func (h *PaymentHandler) View(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.payments.View(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// FlatFee godoc
// @Summary Pay a flat-fee category
// @Description First payment fixes the total; later payments are abonos against the pending balance
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param category path string true "inscripcion, uniforme, libros_lectura, copias_anuales, libro_ingles, excursion or especialidad"
// @Param payload body service.FlatFeePaymentRequest true "Payment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/students/{id}/flat/{category} [post]
func (h *PaymentHandler) FlatFee(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.FlatFeePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.payments.RecordFlatFee(c.Request.Context(), actor, c.Param("id"), models.FeeCategory(c.Param("category")), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Graduation godoc
// @Summary Pay graduation
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.GraduationPaymentRequest true "Payment"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /payments/students/{id}/graduation [post]
func (h *PaymentHandler) Graduation(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GraduationPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.payments.RecordGraduation(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Tuition godoc
// @Summary Pay a tuition month
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.MonthlyPaymentRequest true "Payment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/students/{id}/tuition [post]
func (h *PaymentHandler) Tuition(c *gin.Context) {
	h.monthly(c, h.payments.RecordTuition)
}

// Course godoc
// @Summary Pay an extra-course month
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.MonthlyPaymentRequest true "Payment"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /payments/students/{id}/courses [post]
func (h *PaymentHandler) Course(c *gin.Context) {
	h.monthly(c, h.payments.RecordCourse)
}

func (h *PaymentHandler) monthly(c *gin.Context, record func(context.Context, string, string, service.MonthlyPaymentRequest) (*service.PaymentResult, error)) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.MonthlyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := record(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MoraPreview godoc
// @Summary Late fee preview
// @Description Advisory mora for paying the month today
// @Tags Payments
// @Produce json
// @Param mes_id query int false "Month number 1-12"
// @Param mes query string false "Month name"
// @Param monto query string false "Base amount"
// @Success 200 {object} response.Envelope
// @Router /payments/mora-preview [get]
func (h *PaymentHandler) MoraPreview(c *gin.Context) {
	monthID, err := queryInt(c, "mes_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	amount, err := queryDecimal(c, "monto")
	if err != nil {
		response.Error(c, err)
		return
	}
	preview, err := h.payments.MoraPreview(monthID, c.Query("mes"), amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
