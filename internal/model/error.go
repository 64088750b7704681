package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidProof        = "INVALID_PROOF"
	ErrCodeOrderNotPaid        = "ORDER_NOT_PAID"
	ErrCodeOrderAlreadyPaid    = "ORDER_ALREADY_PAID"
	ErrCodeCorrelationConflict = "CORRELATION_CONFLICT"
	ErrCodeCorrelationUnknown  = "CORRELATION_UNKNOWN"
	ErrCodePricingMismatch     = "PRICING_MISMATCH"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrUserNotFound        = NewDomainError(ErrCodeUserNotFound, "User not found")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "Caller is not allowed to perform this action")
	ErrInvalidProof        = NewDomainError(ErrCodeInvalidProof, "Payment confirmation failed validation")
	ErrOrderNotPaid        = NewDomainError(ErrCodeOrderNotPaid, "Order must be paid before it can be delivered")
	ErrOrderAlreadyPaid    = NewDomainError(ErrCodeOrderAlreadyPaid, "Order is already paid")
	ErrCorrelationConflict = NewDomainError(ErrCodeCorrelationConflict, "Order already has a pending payment correlation")
	ErrCorrelationUnknown  = NewDomainError(ErrCodeCorrelationUnknown, "Correlation id is unknown or already consumed")
	ErrPricingMismatch     = NewDomainError(ErrCodePricingMismatch, "Order total does not match subtotal, shipping and tax")
)
