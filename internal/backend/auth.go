package backend

import (
	"context"
	"net/http"

	"github.com/cetinnova/registro-escolar/internal/models"
)

// Login checks operator credentials against the backend.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	err := c.send(ctx, call{
		method:   http.MethodPost,
		endpoint: "auth_login",
		path:     "/auth/login",
		body:     req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.User.Username == "" {
		resp.User.Username = req.Username
	}
	return &resp.User, nil
}
