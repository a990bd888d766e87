package api

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// APIError is a non-2xx backend response. 401 and 403 still produce an
// APIError for the caller, but the gateway has already reacted to them.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]interface{}
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return e.Message
}

// HTTPStatus exposes the status code to pkg/errors without an import cycle.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

type errorPayload struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details"`
}

// ParseError builds an APIError from a failed response, keeping the
// backend's message when the body is JSON.
func ParseError(resp *resty.Response) error {
	statusCode := resp.StatusCode()

	var payload errorPayload
	if err := json.Unmarshal(resp.Body(), &payload); err == nil {
		msg := payload.Message
		if msg == "" {
			msg = payload.Error
		}
		if msg != "" {
			return &APIError{
				Code:       payload.Code,
				Message:    msg,
				StatusCode: statusCode,
				Details:    payload.Details,
			}
		}
	}

	msg := string(resp.Body())
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &APIError{
		Message:    msg,
		StatusCode: statusCode,
	}
}

func statusOf(err error) int {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized checks if error is due to missing/invalid authentication
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsForbidden checks if error is due to insufficient permissions
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// IsNotFound checks if error is due to resource not found
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsConflict checks if the backend rejected a duplicate write
func IsConflict(err error) bool {
	return statusOf(err) == http.StatusConflict
}

// IsServerError checks if error is due to server error (5xx)
func IsServerError(err error) bool {
	return statusOf(err) >= 500
}

// CheckResponse checks if response is successful and returns error if not
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return ParseError(resp)
	}

	return nil
}
