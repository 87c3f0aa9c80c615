package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrMissingConfig ErrorCode = "missing_configuration"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrReadConfig    ErrorCode = "read_config_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Platform errors
	ErrUnknownPlatform ErrorCode = "unknown_platform_override"
	ErrPlatformDetect  ErrorCode = "platform_detection_failed"

	// Registry errors
	ErrDuplicateBinding ErrorCode = "duplicate_registration"
	ErrUnresolved       ErrorCode = "unresolved_dependency"
	ErrMissingBindings  ErrorCode = "missing_required_bindings"

	// Capability errors
	ErrCapabilityUnavailable ErrorCode = "capability_unavailable"
	ErrCapabilityFailed      ErrorCode = "capability_call_failed"

	// Collection errors
	ErrCollectMetrics ErrorCode = "collect_metrics_failed"
	ErrProviderFailed ErrorCode = "provider_call_failed"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:              "Internal error occurred",
	ErrInvalidArgument:       "Invalid argument provided",
	ErrNotImplemented:        "Operation not implemented",
	ErrUnavailable:           "Service unavailable",
	ErrInvalidConfig:         "Invalid configuration",
	ErrMissingConfig:         "Missing configuration",
	ErrBindFlags:             "Failed to bind flags",
	ErrReadConfig:            "Failed to read configuration",
	ErrInvalidLogLevel:       "Invalid log level",
	ErrInitFailed:            "Initialization failed",
	ErrShutdownFailed:        "Shutdown failed",
	ErrAlreadyRunning:        "Process is already running",
	ErrUnknownPlatform:       "Unrecognized platform override",
	ErrPlatformDetect:        "Failed to detect platform",
	ErrDuplicateBinding:      "Contract is already registered",
	ErrUnresolved:            "No binding registered for contract",
	ErrMissingBindings:       "Required contract bindings are missing",
	ErrCapabilityUnavailable: "Capability is not available on this platform",
	ErrCapabilityFailed:      "Capability call failed",
	ErrCollectMetrics:        "Failed to collect metrics data",
	ErrProviderFailed:        "Provider call failed",
	ErrOperationFailed:       "Operation failed",
	ErrTimeout:               "Operation timed out",
	ErrInvalidOperation:      "Invalid operation",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
