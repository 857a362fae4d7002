package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	var dest []string

	err := repo.Get(context.Background(), "lookups:metodos", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "lookups:metodos", []string{"x"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "lookups:*"))
	assert.NoError(t, repo.Ping(context.Background()))
}
