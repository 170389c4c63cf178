package api

import (
	"context"
	"errors"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/qanoonbot/qanoonchat/internal/errors"
	"github.com/qanoonbot/qanoonchat/internal/models"
)

// Credentials is the body sent to the login and register endpoints
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials against the login endpoint and returns the
// confirmation message. A rejection is an AuthError carrying the server's
// message. No session token is kept.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "login", c.endpoints.Login, email, password,
		models.MsgLoginOK, models.MsgLoginFailed)
}

// Register creates an account through the register endpoint
func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "register", c.endpoints.Register, email, password,
		models.MsgSignupOK, models.MsgSignupFailed)
}

func (c *Client) authenticate(ctx context.Context, operation, endpoint, email, password, okMsg, failMsg string) (string, error) {
	resp, err := c.do(ctx, operation, http.MethodPost, endpoint, Credentials{Email: email, Password: password}, nil)
	if err != nil {
		return "", err
	}

	if resp.ok() {
		return okMsg, nil
	}

	message := failMsg
	if gjson.ValidBytes(resp.body) {
		if e := gjson.GetBytes(resp.body, PathAuthError); e.Type == gjson.String && e.String() != "" {
			message = e.String()
		}
	}

	return "", apierrors.NewAuthError(message)
}

// AuthMessage maps the result of Login or Register to the line shown to the user
func AuthMessage(message string, err error) string {
	if err == nil {
		return message
	}
	var authErr *apierrors.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return models.MsgInternalError
}
