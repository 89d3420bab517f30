package predict

import (
	"errors"
	"fmt"
	"net/url"
)

// DefaultErrorMessage is shown when the endpoint fails without saying why.
const DefaultErrorMessage = "Prediction failed"

// ErrMalformedResponse marks a 2xx response whose body cannot be used.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx answer from the classification endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// Message returns the text to show the user for err: the endpoint's own
// message for API errors, the transport's description for failed requests
// and the error text for anything else.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" {
			return DefaultErrorMessage
		}
		return apiErr.Message
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Error()
	}
	return err.Error()
}
