package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

// UniformSizes are the sizes the uniform form offers.
var UniformSizes = []string{"6", "8", "10", "12", "14", "XS", "S", "M", "L", "XL"}

// UniformBackend is the uniform part of the school backend.
type UniformBackend interface {
	UniformCategories(ctx context.Context) ([]models.UniformCategory, error)
	StudentUniformCategory(ctx context.Context, studentID string) (*models.UniformCategory, error)
	UniformSizes(ctx context.Context, studentID string) ([]models.UniformSize, error)
	SaveUniformSizes(ctx context.Context, studentID string, sizes []models.UniformSizeInput) ([]models.UniformSize, error)
	DeleteUniformSize(ctx context.Context, sizeID string) error
}

// SaveUniformSizesRequest is the sizes form payload.
type SaveUniformSizesRequest struct {
	Sizes []models.UniformSizeInput `json:"tallas" validate:"required,min=1,dive"`
}

// UniformService manages registered uniform sizes.
type UniformService struct {
	backend   UniformBackend
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUniformService constructs the uniform service.
func NewUniformService(backend UniformBackend, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UniformService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UniformService{backend: backend, cache: cache, validator: validate, logger: logger}
}

// Categories returns every uniform category with its garments.
func (s *UniformService) Categories(ctx context.Context) ([]models.UniformCategory, error) {
	return remember(ctx, s.cache, cacheKeyUniformCats, s.backend.UniformCategories)
}

// StudentCategory returns the category assigned to a student; nil when none applies.
func (s *UniformService) StudentCategory(ctx context.Context, studentID string) (*models.UniformCategory, error) {
	return s.backend.StudentUniformCategory(ctx, studentID)
}

// Sizes lists the sizes registered for a student.
func (s *UniformService) Sizes(ctx context.Context, studentID string) ([]models.UniformSize, error) {
	sizes, err := s.backend.UniformSizes(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if sizes == nil {
		sizes = []models.UniformSize{}
	}
	return sizes, nil
}

// SaveSizes validates and stores the sizes of a student. Quantity defaults to 1.
func (s *UniformService) SaveSizes(ctx context.Context, studentID string, req SaveUniformSizesRequest) ([]models.UniformSize, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Validation("estudiante inválido")
	}
	if len(req.Sizes) == 0 {
		return nil, appErrors.Validation("Seleccione al menos una talla")
	}

	entries := make([]models.UniformSizeInput, 0, len(req.Sizes))
	for _, entry := range req.Sizes {
		entry.ItemID = strings.TrimSpace(entry.ItemID)
		entry.Size = strings.ToUpper(strings.TrimSpace(entry.Size))
		if entry.Quantity == 0 {
			entry.Quantity = 1
		}
		if entry.Quantity < 0 {
			return nil, appErrors.Validation("La cantidad debe ser al menos 1")
		}
		if !contains(UniformSizes, entry.Size) {
			return nil, appErrors.Validation("Talla inválida: " + entry.Size)
		}
		entries = append(entries, entry)
	}
	if err := s.validator.Struct(SaveUniformSizesRequest{Sizes: entries}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Seleccione la prenda y la talla")
	}

	saved, err := s.backend.SaveUniformSizes(ctx, studentID, entries)
	if err != nil {
		return nil, err
	}
	s.logger.Info("uniform sizes saved", zap.String("student_id", studentID), zap.Int("entries", len(entries)))
	if saved == nil {
		return s.Sizes(ctx, studentID)
	}
	return saved, nil
}

// DeleteSize removes one registered size.
func (s *UniformService) DeleteSize(ctx context.Context, sizeID string) error {
	if strings.TrimSpace(sizeID) == "" {
		return appErrors.Validation("talla inválida")
	}
	return s.backend.DeleteUniformSize(ctx, sizeID)
}
