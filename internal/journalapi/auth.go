package journalapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registrationRequest struct {
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// Login exchanges email and password for an API token.
func (c *Client) Login(ctx context.Context, email string, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(loginPath), "", loginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return "", fmt.Errorf("log in: %w", err)
	}

	return tokenFromBody(resp.body)
}

// Register creates an account and returns the token the backend issues for it.
func (c *Client) Register(ctx context.Context, email string, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(registrationPath), "", registrationRequest{
		Email:     strings.TrimSpace(email),
		Password1: password,
		Password2: password,
	})
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	return tokenFromBody(resp.body)
}

func tokenFromBody(body []byte) (string, error) {
	for _, field := range []string{"key", "token", "access_token"} {
		if token := strings.TrimSpace(gjson.GetBytes(body, field).String()); token != "" {
			return token, nil
		}
	}

	return "", ErrNoToken
}
