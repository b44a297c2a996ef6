package journalapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

var ErrNoToken = errors.New("no token received from server")

// APIError is a non-2xx backend response. Message is already suitable for
// showing to the user.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend responded with status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func newAPIError(statusCode int, contentType string, body []byte) *APIError {
	message := ""

	if strings.Contains(contentType, "text/html") {
		message = htmlErrorMessage(body)
	} else {
		message = ErrorMessage(body)
	}

	if message == "" {
		message = http.StatusText(statusCode)
	}

	return &APIError{StatusCode: statusCode, Message: message}
}

// ErrorMessage picks the most useful line out of a DRF error payload: the
// detail, then the first field error, then the payload itself.
func ErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if !gjson.ValidBytes(trimmed) {
		return string(trimmed)
	}

	fields := []struct {
		path   string
		prefix string
	}{
		{"detail", ""},
		{"email.0", "Email: "},
		{"password1.0", "Password: "},
		{"password.0", "Password: "},
		{"non_field_errors.0", ""},
	}

	for _, field := range fields {
		if v := gjson.GetBytes(trimmed, field.path); v.Exists() {
			return field.prefix + v.String()
		}
	}

	return string(trimmed)
}

func htmlErrorMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if title != "" {
		return title
	}

	return strings.Join(strings.Fields(doc.Find("h1").First().Text()), " ")
}

// UserMessage turns any client error into text for the user.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	if errors.Is(err, ErrNoToken) {
		return "No token received from server"
	}

	return fallback
}
