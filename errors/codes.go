package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Lifecycle errors
const (
	// ErrCodeNotInitialized indicates no container or context is available.
	ErrCodeNotInitialized ErrorCode = "NOT_INITIALIZED"
	// ErrCodeAlreadyStarted indicates the global container is already running.
	ErrCodeAlreadyStarted ErrorCode = "ALREADY_STARTED"
	// ErrCodeContainerClosed indicates an operation on a closed container.
	ErrCodeContainerClosed ErrorCode = "CONTAINER_CLOSED"
)

// Registry errors
const (
	// ErrCodeDuplicateDefinition indicates a type registered more than once.
	ErrCodeDuplicateDefinition ErrorCode = "DUPLICATE_DEFINITION"
	// ErrCodeDefinitionNotFound indicates a type with no registered definition.
	ErrCodeDefinitionNotFound ErrorCode = "DEFINITION_NOT_FOUND"
)

// Resolution errors
const (
	// ErrCodeCircularDependency indicates a type revisited in one resolution chain.
	ErrCodeCircularDependency ErrorCode = "CIRCULAR_DEPENDENCY"
	// ErrCodeTypeInference indicates constructor parameter types could not be mapped.
	ErrCodeTypeInference ErrorCode = "TYPE_INFERENCE"
	// ErrCodeResolutionContext indicates an inference call outside a valid factory context.
	ErrCodeResolutionContext ErrorCode = "RESOLUTION_CONTEXT"
	// ErrCodeFactoryFailed indicates a factory returned its own error.
	ErrCodeFactoryFailed ErrorCode = "FACTORY_FAILED"
)

// Infrastructure errors
const (
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Sentinel kinds for errors.Is. AppError.Is matches on code only, so
//
//	errors.Is(err, apperrors.ErrCircularDependency)
//
// holds for every circular dependency error regardless of its chain.
// Never mutate these values.
var (
	ErrNotInitialized       = &AppError{Code: ErrCodeNotInitialized}
	ErrAlreadyStarted       = &AppError{Code: ErrCodeAlreadyStarted}
	ErrContainerClosed      = &AppError{Code: ErrCodeContainerClosed}
	ErrDuplicateDefinition  = &AppError{Code: ErrCodeDuplicateDefinition}
	ErrDefinitionNotFound   = &AppError{Code: ErrCodeDefinitionNotFound}
	ErrCircularDependency   = &AppError{Code: ErrCodeCircularDependency}
	ErrTypeInference        = &AppError{Code: ErrCodeTypeInference}
	ErrResolutionContext    = &AppError{Code: ErrCodeResolutionContext}
	ErrFactoryFailed        = &AppError{Code: ErrCodeFactoryFailed}
	ErrInvalidConfig        = &AppError{Code: ErrCodeInvalidConfig}
)
