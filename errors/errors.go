package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// HTTPStatus is the status used when the error is rendered by diag handlers.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t == nil {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// --- Container lifecycle ---

// NotInitialized creates an error for use of a container or context that was never started.
func NotInitialized(message string) *AppError {
	if message == "" {
		message = "Container is not initialized. Call Start() or Load() first."
	}
	return &AppError{
		Code: ErrCodeNotInitialized, Message: message,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// AlreadyStarted creates an error for starting the global container twice.
func AlreadyStarted() *AppError {
	return &AppError{
		Code: ErrCodeAlreadyStarted, Message: "Container is already started. Call Stop() before starting again.",
		HTTPStatus: http.StatusConflict,
	}
}

// ContainerClosed creates an error for an operation attempted after Close.
func ContainerClosed(operation string) *AppError {
	return &AppError{
		Code: ErrCodeContainerClosed, Message: fmt.Sprintf("Cannot %s: container is closed.", operation),
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"operation": operation},
	}
}

// --- Registry ---

// DuplicateDefinition creates an error for a type that is already registered.
func DuplicateDefinition(typeName, module string) *AppError {
	details := map[string]any{"type": typeName}
	if module != "" {
		details["module"] = module
	}
	return &AppError{
		Code: ErrCodeDuplicateDefinition, Message: fmt.Sprintf("%s is already registered.", typeName),
		HTTPStatus: http.StatusConflict, Details: details,
	}
}

// DefinitionNotFound creates an error for a type that has no definition.
// registered lists the types that are available, for the hint in the message.
func DefinitionNotFound(typeName string, registered []string) *AppError {
	available := "none"
	if len(registered) > 0 {
		available = strings.Join(registered, ", ")
	}
	return &AppError{
		Code: ErrCodeDefinitionNotFound,
		Message: fmt.Sprintf("%s is not registered. Registered types: %s. Hint: di.Single[%s](module, factory)",
			typeName, available, typeName),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"type": typeName, "registered": registered},
	}
}

// NotLoaded creates an error for unloading a definition that is not currently registered.
func NotLoaded(typeName, module string) *AppError {
	return &AppError{
		Code: ErrCodeDefinitionNotFound, Message: fmt.Sprintf("%s from module %q is not loaded.", typeName, module),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"type": typeName, "module": module},
	}
}

// --- Resolution ---

// CircularDependency creates an error carrying the resolution chain that
// revisited a type. The last element repeats an earlier one.
func CircularDependency(chain []string) *AppError {
	return &AppError{
		Code: ErrCodeCircularDependency, Message: "Circular dependency detected: " + strings.Join(chain, " -> "),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"chain": chain},
	}
}

// TypeInference creates an error for a constructor whose parameters cannot be mapped.
func TypeInference(typeName, reason string) *AppError {
	return &AppError{
		Code: ErrCodeTypeInference, Message: fmt.Sprintf("Type inference failed for %s: %s", typeName, reason),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"type": typeName},
	}
}

// ResolutionContext creates an error for an inference call made without a usable resolution context.
func ResolutionContext(reason string) *AppError {
	return &AppError{
		Code: ErrCodeResolutionContext, Message: reason,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// FactoryFailed wraps an error returned by a user factory.
func FactoryFailed(typeName string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFactoryFailed, Message: fmt.Sprintf("Factory for %s failed.", typeName),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"type": typeName}, Cause: cause,
	}
}

// --- Infrastructure ---

// InvalidConfig creates an error for configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
