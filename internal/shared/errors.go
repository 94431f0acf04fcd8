package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Transport and backend errors
	ErrTransport          = fmt.Errorf("transport error")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrInvalidURL         = fmt.Errorf("invalid url")
	ErrUnreachable        = fmt.Errorf("source unreachable")

	// Task lifecycle guards
	ErrTaskNotFound        = fmt.Errorf("task not found")
	ErrTaskVanished        = fmt.Errorf("task vanished from backend")
	ErrNotFinished         = fmt.Errorf("task not finished")
	ErrAlreadyMaterialized = fmt.Errorf("task already materialized")

	// Metadata store errors
	ErrMetadataNotFound = fmt.Errorf("metadata not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
