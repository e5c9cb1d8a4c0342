package relief

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	friendlyerrors "reliefctl/internal/errors"
)

// StatusError is a non-2xx answer from the relief service.
type StatusError struct {
	Code    int
	Status  string
	Message string // the service's {"error": ...} text, when it sent one
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	}
	if e.Status != "" {
		return "HTTP " + e.Status
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

func newStatusError(code int, status string, body []byte) *StatusError {
	se := &StatusError{Code: code, Status: status}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && strings.TrimSpace(payload.Error) != "" {
		se.Message = strings.TrimSpace(payload.Error)
	}
	return se
}

// Explain turns a transport error into an operator-facing one.
// Errors it does not recognise are returned unchanged.
func Explain(err error, baseURL string) error {
	if err == nil {
		return nil
	}
	var se *StatusError
	if errors.As(err, &se) {
		return friendlyerrors.ServiceError(se.Code, se.Message, err)
	}
	var ue *url.Error
	var ne net.Error
	if errors.As(err, &ue) || errors.As(err, &ne) {
		return friendlyerrors.NetworkError(err, baseURL)
	}
	return err
}
