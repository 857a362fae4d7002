// Package backend is the typed client of the school REST API that owns
// students, payments, courses and uniforms.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/pkg/config"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
	"github.com/cetinnova/registro-escolar/pkg/middleware/requestid"
)

const fallbackMessage = "Error al comunicarse con el servidor"

// Observer receives timing for every upstream call.
type Observer interface {
	ObserveUpstream(method, endpoint string, status int, duration time.Duration)
}

// UpstreamError describes a non-2xx answer from the school backend.
type UpstreamError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Message)
}

// Client talks JSON over HTTP to the school backend. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics Observer
}

// New constructs a Client from configuration.
func New(cfg config.BackendConfig, logger *zap.Logger, metrics Observer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// call describes one request. endpoint is the low-cardinality label used for metrics and logs.
type call struct {
	method   string
	endpoint string
	path     string
	query    url.Values
	body     interface{}
}

func (c *Client) do(ctx context.Context, req call) ([]byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var reader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.observe(req, http.StatusServiceUnavailable, duration)
		c.logger.Warn("backend request failed",
			zap.String("method", req.method),
			zap.String("endpoint", req.endpoint),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fallbackMessage)
	}
	defer resp.Body.Close()
	c.observe(req, resp.StatusCode, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fallbackMessage)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstream := &UpstreamError{
			Method:     req.method,
			Endpoint:   req.endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
		c.logger.Warn("backend returned error",
			zap.String("method", req.method),
			zap.String("endpoint", req.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", upstream.Message),
		)
		return nil, translate(upstream)
	}

	return body, nil
}

func (c *Client) observe(req call, status int, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveUpstream(req.method, req.endpoint, status, duration)
}

// get decodes the response into out, unwrapping a {data: ...} envelope when present.
func (c *Client) get(ctx context.Context, req call, out interface{}) error {
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return decodeData(body, out)
}

// send decodes the response as-is; write endpoints put metadata next to the record.
func (c *Client) send(ctx context.Context, req call, out interface{}) error {
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return decodeError(err)
	}
	return nil
}

func decodeData(body []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	if body[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err == nil {
			if data, ok := envelope["data"]; ok {
				body = data
			}
		}
	}
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "respuesta inválida del servidor")
}

// errorMessage pulls the human message the backend puts in "error" or "message".
func errorMessage(body []byte) string {
	var payload struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch v := payload.Error.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fallbackMessage
}

func translate(upstream *UpstreamError) *appErrors.Error {
	msg := upstream.Message
	switch upstream.StatusCode {
	case http.StatusNotFound:
		return appErrors.Wrap(upstream, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return appErrors.Wrap(upstream, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
	case http.StatusConflict:
		return appErrors.Wrap(upstream, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, msg)
	case http.StatusUnauthorized:
		return appErrors.Wrap(upstream, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, msg)
	default:
		return appErrors.Wrap(upstream, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, msg)
	}
}

func idPath(format string, ids ...string) string {
	escaped := make([]interface{}, len(ids))
	for i, id := range ids {
		escaped[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, escaped...)
}

func nameQuery(name string) url.Values {
	return url.Values{"nombre": []string{name}}
}
