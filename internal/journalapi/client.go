package journalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxResponseBytes = 1 << 20
	csrfCookieName   = "csrftoken"

	loginPath         = "/api/auth/login/"
	registrationPath  = "/api/auth/registration/"
	entriesPath       = "/api/entries/"
	recentEntriesPath = "/api/entries/recent/"
)

// Client talks to the journal REST backend. It keeps cookies so the CSRF
// token issued by the backend is echoed back on unsafe requests.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func New(baseURL string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		log: log,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

type response struct {
	statusCode int
	body       []byte
}

func (c *Client) do(
	ctx context.Context,
	method string,
	rawURL string,
	token string,
	payload any,
) (*response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	if csrfToken := c.csrfToken(req.URL); csrfToken != "" {
		req.Header.Set("X-CSRFToken", csrfToken)
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"requestID", requestID)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.log.DebugContext(ctx, "Backend request is done",
		"method", method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"requestID", requestID,
		"durationMs", time.Since(start).Milliseconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newAPIError(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}

	return &response{statusCode: resp.StatusCode, body: respBody}, nil
}

func (c *Client) csrfToken(u *url.URL) string {
	if c.http.Jar == nil {
		return ""
	}

	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}

	return ""
}
