package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:3000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 150.0, cfg.School.CourseMonthlyFee)
	assert.Equal(t, 30*time.Minute, cfg.Ledger.SessionTTL)
	assert.Equal(t, 720*time.Hour, cfg.Receipts.Retention)
	assert.False(t, cfg.Database.Enabled)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("BACKEND_BASE_URL", "https://api.innova.edu.gt/api/")
	v.Set("BACKEND_TIMEOUT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "http://localhost:5173, ,https://innova.edu.gt")
	v.Set("COURSE_MONTHLY_FEE", -1)

	cfg := fromViper(v)
	assert.Equal(t, "https://api.innova.edu.gt/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://innova.edu.gt"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 150.0, cfg.School.CourseMonthlyFee)
}
