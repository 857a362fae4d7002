package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

type fakeAuthSrv struct {
	last models.LoginRequest
	err  error
}

func (f *fakeAuthSrv) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "tok", ExpiresIn: 3600, User: models.User{ID: "1", Username: req.Username}}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"username":"caja","password":"secreto"}`, "")
	h.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "caja", srv.last.Username)
	env := decodeEnvelope(t, rec)
	var res models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "tok", res.AccessToken)
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "Usuario o contraseña incorrectos")})

	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"username":"caja","password":"x"}`, "")
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Usuario o contraseña incorrectos", env.Error.Message)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})

	c, rec := newTestContext(http.MethodGet, "/auth/me", "", "caja")
	h.Me(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"caja"`)

	c, rec = newTestContext(http.MethodGet, "/auth/me", "", "")
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
