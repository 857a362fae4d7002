package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

func TestCourseServiceCachesCatalogues(t *testing.T) {
	school := newFakeSchool()
	school.courses = []models.ExtraCourse{{ID: "1", Name: "Computación"}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc := NewCourseService(school, cache, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		courses, err := svc.Courses(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Computación", courses[0].Name)

		months, err := svc.Months(ctx)
		require.NoError(t, err)
		assert.Len(t, months, 3)
	}
	assert.Equal(t, 1, school.count("courses"))
	assert.Equal(t, 1, school.count("course_months"))
}

func TestCourseServiceSummary(t *testing.T) {
	school := newFakeSchool()
	svc := NewCourseService(school, nil, nil)

	summary, err := svc.Summary(context.Background(), "2")
	require.NoError(t, err)
	assert.Zero(t, summary.MonthsPaid)

	school.summary = &models.CourseSummary{MonthsPaid: 2, MonthsPending: 8, TotalPaid: dec("330")}
	summary, err = svc.Summary(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, 8, summary.MonthsPending)

	_, err = svc.Summary(context.Background(), " ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
