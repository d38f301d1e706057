package types

// Error codes carried by ServiceError. The API layer maps them to HTTP
// statuses.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeChainUnavailable = "CHAIN_UNAVAILABLE"
	CodeStalePrice       = "STALE_PRICE"
	CodeTxReverted       = "TX_REVERTED"
	CodeTxTimeout        = "TX_TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// NewServiceError builds a ServiceError without details.
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// WithDetails attaches a details map, returning the same error for chaining.
func (e *ServiceError) WithDetails(details map[string]interface{}) *ServiceError {
	e.Details = details
	return e
}
