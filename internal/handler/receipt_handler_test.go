package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetinnova/registro-escolar/internal/models"
	"github.com/cetinnova/registro-escolar/internal/service"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

type fakeReceiptSrv struct {
	lastLimit int
	lastToken string
}

func (f *fakeReceiptSrv) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Receipt, error) {
	f.lastLimit = limit
	return []models.Receipt{{ID: "r1", StudentID: studentID, URL: "/api/v1/receipts/download/tok"}}, nil
}

func (f *fakeReceiptSrv) Download(ctx context.Context, token string) (*service.ReceiptFile, error) {
	f.lastToken = token
	if token == "bad" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enlace de descarga inválido o expirado")
	}
	return &service.ReceiptFile{Filename: "Recibo_Colegiatura_9.pdf", Data: []byte("%PDF-1.3")}, nil
}

func TestReceiptHandlerListDefaultsLimit(t *testing.T) {
	srv := &fakeReceiptSrv{}
	h := NewReceiptHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/receipts/students/12", "", "u1")
	withParams(c, "id", "12")
	h.ListByStudent(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultReceiptLimit, srv.lastLimit)

	c, rec = newTestContext(http.MethodGet, "/receipts/students/12?limit=5", "", "u1")
	withParams(c, "id", "12")
	h.ListByStudent(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, srv.lastLimit)
}

func TestReceiptHandlerDownload(t *testing.T) {
	h := NewReceiptHandler(&fakeReceiptSrv{})

	c, rec := newTestContext(http.MethodGet, "/receipts/download/ok", "", "")
	withParams(c, "token", "ok")
	h.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Recibo_Colegiatura_9.pdf")
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestReceiptHandlerDownloadForbidden(t *testing.T) {
	h := NewReceiptHandler(&fakeReceiptSrv{})

	c, rec := newTestContext(http.MethodGet, "/receipts/download/bad", "", "")
	withParams(c, "token", "bad")
	h.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
