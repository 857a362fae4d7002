package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

// CourseBackend is the extracurricular-course part of the school backend.
type CourseBackend interface {
	ExtraCourses(ctx context.Context) ([]models.ExtraCourse, error)
	CourseMonths(ctx context.Context) ([]models.CourseMonth, error)
	CourseSummary(ctx context.Context, studentID string) (*models.CourseSummary, error)
}

// CourseService exposes the course catalogues and per-student summaries.
type CourseService struct {
	backend CourseBackend
	cache   *CacheService
	logger  *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(backend CourseBackend, cache *CacheService, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{backend: backend, cache: cache, logger: logger}
}

// Courses returns the extracurricular course catalogue.
func (s *CourseService) Courses(ctx context.Context) ([]models.ExtraCourse, error) {
	return remember(ctx, s.cache, cacheKeyExtraCourses, s.backend.ExtraCourses)
}

// Months returns the course month catalogue.
func (s *CourseService) Months(ctx context.Context) ([]models.CourseMonth, error) {
	return remember(ctx, s.cache, cacheKeyCourseMonths, s.backend.CourseMonths)
}

// Summary aggregates the course payments of a student.
func (s *CourseService) Summary(ctx context.Context, studentID string) (*models.CourseSummary, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Validation("estudiante inválido")
	}
	summary, err := s.backend.CourseSummary(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		summary = &models.CourseSummary{}
	}
	return summary, nil
}
