package mergesdk

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/imroc/req/v3"
)

// DefaultErrorMessage is shown when the server did not say what went wrong
const DefaultErrorMessage = "An unexpected error occurred. Please try again."

// maxErrorBody caps how much of a failed response is read for the error message
const maxErrorBody = 64 * 1024

var (
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrInvalidServerURL = errors.New("sdk: invalid server url")
	ErrFileNotFound     = errors.New("sdk: file not found")
	ErrNotAFile         = errors.New("sdk: not a regular file")
)

// APIError is a non-2xx response. Message carries the server's `error` field
// and is empty when the body could not be decoded.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d - %s", e.StatusCode, e.Message)
}

// ErrorMessage returns the text to show a user for err: the server's message
// when there is one, DefaultErrorMessage otherwise.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultErrorMessage
}

// handleAPIError converts transport failures and non-2xx responses into errors
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	if resp.IsSuccessState() {
		return nil
	}

	apiErr, ok := resp.ErrorResult().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.StatusCode = resp.GetStatusCode()

	return fmt.Errorf("%s: %w", operation, apiErr)
}

// decodeAPIError reads the error body of a response whose body was not
// consumed by req (DisableAutoReadResponse).
func decodeAPIError(resp *req.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.GetStatusCode()}
	if resp.Body == nil {
		return apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	if err := jsonUnmarshal(body, apiErr); err != nil {
		apiErr.Message = ""
	}
	apiErr.StatusCode = resp.GetStatusCode()
	return apiErr
}
