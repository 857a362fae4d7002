package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cetinnova/registro-escolar/internal/middleware"
	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext identifies the operator behind the request; ledger sessions are keyed by it.
func actorFromContext(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return "", appErrors.ErrUnauthorized
	}
	return claims.UserID, nil
}

func studentFilterFromQuery(c *gin.Context) models.StudentFilter {
	return models.StudentFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Grade:    c.Query("grado"),
		Shift:    c.Query("jornada"),
		Modality: c.Query("modalidad"),
	}
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "parámetro "+key+" inválido")
	}
	return v, nil
}

func queryDecimal(c *gin.Context, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "parámetro "+key+" inválido")
	}
	return v, nil
}
