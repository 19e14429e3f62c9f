package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Repository lifecycle errors (1xxx)
	ErrCodeClone        ErrorCode = "GNE1001"
	ErrCodeFetch        ErrorCode = "GNE1002"
	ErrCodeNotCloned    ErrorCode = "GNE1003"
	ErrCodeInvalidState ErrorCode = "GNE1004"
	ErrCodeWorkspace    ErrorCode = "GNE1005"

	// History query errors (2xxx)
	ErrCodeEmptyHistory    ErrorCode = "GNE2001"
	ErrCodeHistoryMismatch ErrorCode = "GNE2002"
	ErrCodeHistoryQuery    ErrorCode = "GNE2003"

	// Configuration errors (3xxx)
	ErrCodeMalformedConfig ErrorCode = "GNE3001"
	ErrCodeConfigNotFound  ErrorCode = "GNE3002"
	ErrCodeConfigWrite     ErrorCode = "GNE3003"

	// Notification errors (4xxx)
	ErrCodeTransport       ErrorCode = "GNE4001"
	ErrCodeTransportConfig ErrorCode = "GNE4002"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "GNE9001"
	ErrCodeTimeout            ErrorCode = "GNE9002"
	ErrCodeMaxRetriesExceeded ErrorCode = "GNE9003"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // Process cannot continue
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// Inherit context from a wrapped AppError
	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Sentinels for errors.Is checks. Only the code takes part in the comparison.
var (
	ErrClone           = &AppError{Code: ErrCodeClone}
	ErrFetch           = &AppError{Code: ErrCodeFetch}
	ErrNotCloned       = &AppError{Code: ErrCodeNotCloned}
	ErrInvalidState    = &AppError{Code: ErrCodeInvalidState}
	ErrEmptyHistory    = &AppError{Code: ErrCodeEmptyHistory}
	ErrHistoryMismatch = &AppError{Code: ErrCodeHistoryMismatch}
	ErrMalformedConfig = &AppError{Code: ErrCodeMalformedConfig}
	ErrTransport       = &AppError{Code: ErrCodeTransport}
)

// Common error constructors

// CloneError creates an error for a failed clone of a repository
func CloneError(repository string, cause error) *AppError {
	return Wrap(cause, ErrCodeClone, fmt.Sprintf("Failed to clone repository %s", repository)).
		WithContext("repository", repository).
		WithContext("operation", "clone").
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Check that the repository URL is reachable",
			"Verify the branch exists on the remote",
			"Make sure the workspace directory is writable",
		)
}

// FetchError creates an error for a failed refresh of a cloned repository
func FetchError(repository string, cause error) *AppError {
	return Wrap(cause, ErrCodeFetch, fmt.Sprintf("Failed to fetch repository %s", repository)).
		WithContext("repository", repository).
		WithContext("operation", "fetch").
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Check your network connection",
			"Verify your credentials for the remote",
		)
}

// NotClonedError is returned when a refresh is attempted before a successful clone
func NotClonedError(repository string) *AppError {
	return New(ErrCodeNotCloned, fmt.Sprintf("Repository %s has not been cloned yet", repository)).
		WithContext("repository", repository).
		WithContext("operation", "fetch")
}

// EmptyHistoryError is returned when a history query yields no commits
func EmptyHistoryError(repository, branch string) *AppError {
	return New(ErrCodeEmptyHistory, fmt.Sprintf("No commits visible on origin/%s for %s", branch, repository)).
		WithContext("repository", repository).
		WithContext("branch", branch).
		WithContext("operation", "poll").
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"The last fetch may have been interrupted",
			"Check that the branch has at least one commit",
		)
}

// InvalidStateError is returned when an operation does not fit the repository's lifecycle state
func InvalidStateError(repository, operation, message string) *AppError {
	return New(ErrCodeInvalidState, message).
		WithContext("repository", repository).
		WithContext("operation", operation)
}

// HistoryQueryError wraps a failed history query against origin/<branch>
func HistoryQueryError(repository, branch string, cause error) *AppError {
	return Wrap(cause, ErrCodeHistoryQuery, fmt.Sprintf("Failed to read history of origin/%s for %s", branch, repository)).
		WithContext("repository", repository).
		WithContext("branch", branch).
		WithContext("operation", "poll").
		WithSeverity(SeverityCritical).
		WithSuggestions(fmt.Sprintf("Verify that branch '%s' exists on the remote", branch))
}

// HistoryMismatchError is returned when the hash and subject queries disagree on length
func HistoryMismatchError(repository string, hashes, subjects int) *AppError {
	return New(ErrCodeHistoryMismatch,
		fmt.Sprintf("History query for %s returned %d hashes but %d subjects", repository, hashes, subjects)).
		WithContext("repository", repository).
		WithContext("operation", "poll").
		WithSeverity(SeverityCritical)
}

// TransportError wraps a failed notification delivery
func TransportError(transport string, cause error) *AppError {
	return Wrap(cause, ErrCodeTransport, fmt.Sprintf("Failed to deliver notification via %s", transport)).
		WithContext("transport", transport).
		WithContext("operation", "notify")
}

// ConfigError creates a malformed configuration error for a field
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeMalformedConfig, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'gitnotifier init' to generate a starter configuration",
		)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Is is errors.Is, re-exported so callers need only one errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
