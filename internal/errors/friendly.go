package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides actionable error messages for operators
type UserFriendlyError struct {
	Message    string // What went wrong, in operator terms
	Suggestion string // Actionable steps to fix the issue
	Details    error  // Original error for debugging/logs
}

func (e *UserFriendlyError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString("How to fix:\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *UserFriendlyError) Unwrap() error {
	return e.Details
}

// NewFriendlyError creates a user-friendly error
func NewFriendlyError(message, suggestion string) *UserFriendlyError {
	return &UserFriendlyError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// WithDetails adds the underlying error details
func (e *UserFriendlyError) WithDetails(err error) *UserFriendlyError {
	e.Details = err
	return e
}

// NetworkError classifies a transport failure talking to the relief service at baseURL.
func NetworkError(err error, baseURL string) *UserFriendlyError {
	msg := "Network error talking to the relief service"
	suggestion := fmt.Sprintf("Check that the service at %s is reachable and try again", baseURL)

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "no such host") || strings.Contains(errStr, "name resolution") {
			msg = "Cannot resolve the relief service hostname"
			suggestion = fmt.Sprintf("Verify service.base_url (currently %s) or set RELIEF_BASE_URL", baseURL)
		}

		if strings.Contains(errStr, "connection refused") {
			msg = "Relief service refused the connection"
			suggestion = fmt.Sprintf("Start the backend (it listens on %s by default) and retry", baseURL)
		}

		if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
			msg = "Request to the relief service timed out"
			suggestion = "The service is slow or unreachable. Raise network.timeout_seconds or try again later"
		}

		if strings.Contains(errStr, "certificate") || strings.Contains(errStr, "x509") {
			msg = "TLS certificate verification failed"
			suggestion = "Check the certificate served by the relief service or use its plain http address"
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}

// ServiceError explains a non-2xx answer from the relief service.
func ServiceError(statusCode int, serviceMsg string, err error) *UserFriendlyError {
	msg := fmt.Sprintf("Relief service returned %d", statusCode)
	if serviceMsg != "" {
		msg = fmt.Sprintf("%s: %s", msg, serviceMsg)
	}
	suggestion := "Retry the operation; if it keeps failing check the service logs"
	switch {
	case statusCode == 400:
		suggestion = "The request was rejected as invalid. Check the region name or the uploaded file"
	case statusCode == 404:
		suggestion = "The endpoint was not found. Check that service.base_url points at the relief API"
	case statusCode == 413:
		suggestion = "The upload is too large for the service. Split the CSV and upload the parts"
	case statusCode >= 500:
		suggestion = "The service failed internally. Check its logs and retry"
	}
	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}

// ConfigError returns configuration-related errors
func ConfigError(path string, err error) *UserFriendlyError {
	return &UserFriendlyError{
		Message:    fmt.Sprintf("Configuration error in %s: %v", path, err),
		Suggestion: "Run 'reliefctl config validate' to check your configuration\nOr remove the file to run with built-in defaults",
		Details:    err,
	}
}

// DatabaseError returns journal database errors with recovery suggestions
func DatabaseError(err error) *UserFriendlyError {
	msg := "Journal database error"
	suggestion := "Try running: reliefctl doctor"

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "locked") {
			msg = "Journal database is locked by another process"
			suggestion = "Close other reliefctl instances and try again"
		}

		if strings.Contains(errStr, "corrupt") || strings.Contains(errStr, "malformed") {
			msg = "Journal database is corrupted"
			suggestion = "Move journal.db out of general.data_root; a fresh one is created on next start"
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}

// FileError explains why a CSV selected for upload cannot be used.
func FileError(path string, err error) *UserFriendlyError {
	msg := fmt.Sprintf("Cannot use %s for upload", path)
	suggestion := "Choose an existing, readable CSV file"

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "permission denied") {
			msg = fmt.Sprintf("Permission denied: %s", path)
			suggestion = fmt.Sprintf("Ensure you can read the file:\n  chmod u+r %s", path)
		}

		if strings.Contains(errStr, "no such file or directory") {
			msg = fmt.Sprintf("File does not exist: %s", path)
		}

		if strings.Contains(errStr, "is a directory") {
			msg = fmt.Sprintf("%s is a directory", path)
			suggestion = "Pick a CSV file inside it instead"
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}
