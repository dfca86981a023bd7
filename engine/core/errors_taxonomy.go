package core

import "fmt"

// ModelProviderErrorType classifies a failure returned by an LLM provider.
type ModelProviderErrorType string

const (
	ProviderErrorOverloaded         ModelProviderErrorType = "overloaded"
	ProviderErrorRateLimit          ModelProviderErrorType = "rate_limit"
	ProviderErrorContextLength      ModelProviderErrorType = "context_length"
	ProviderErrorAuth               ModelProviderErrorType = "auth"
	ProviderErrorServiceUnavailable ModelProviderErrorType = "service_unavailable"
	ProviderErrorUnknown            ModelProviderErrorType = "unknown"
)

// ValidationError aggregates every violation found while validating a
// workflow definition or node config, rather than failing on the first.
type ValidationError struct {
	*Error
	Violations []string
}

func NewValidationError(violations []string) *ValidationError {
	msg := fmt.Sprintf("workflow validation failed with %d violation(s)", len(violations))
	return &ValidationError{
		Error:      NewError(fmt.Errorf("%s", msg), "validation_failed", map[string]any{"violations": violations}),
		Violations: violations,
	}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Error.Error()
	}
	return fmt.Sprintf("%s: %v", e.Error.Error(), e.Violations)
}

// NodeExecutionError is raised by a node's Execute call. It is recorded on
// the task only; it never propagates as a run-level failure directly,
// though dependents cascade to UpstreamFailed.
type NodeExecutionError struct {
	*Error
	NodeID string
}

func NewNodeExecutionError(nodeID string, err error) *NodeExecutionError {
	return &NodeExecutionError{
		Error:  NewError(err, "node_execution_failed", map[string]any{"node_id": nodeID}),
		NodeID: nodeID,
	}
}

// ModelProviderError is returned verbatim to the client for UI
// classification; it is not retried by the scheduler.
type ModelProviderError struct {
	*Error
	Provider  string
	ErrorType ModelProviderErrorType
}

func NewModelProviderError(provider string, errType ModelProviderErrorType, msg string) *ModelProviderError {
	return &ModelProviderError{
		Error: NewError(fmt.Errorf("%s", msg), "model_provider_error", map[string]any{
			"provider":   provider,
			"error_type": string(errType),
		}),
		Provider:  provider,
		ErrorType: errType,
	}
}

// InfrastructureError marks persistence/network failures inside the engine.
// These are retried with exponential backoff for idempotent writes; after
// retry exhaustion the run fails.
type InfrastructureError struct {
	*Error
	Retryable bool
}

func NewInfrastructureError(err error, retryable bool) *InfrastructureError {
	return &InfrastructureError{
		Error:     NewError(err, "infrastructure_error", map[string]any{"retryable": retryable}),
		Retryable: retryable,
	}
}

// CancellationError is benign: it maps to StatusCanceled rather than
// StatusFailed.
type CancellationError struct {
	*Error
	Reason string
}

func NewCancellationError(reason string) *CancellationError {
	return &CancellationError{
		Error:  NewError(fmt.Errorf("canceled: %s", reason), "canceled", map[string]any{"reason": reason}),
		Reason: reason,
	}
}
