package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Catalog ───────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrInvalidQuestionSet ErrCode = "INVALID_QUESTION_SET"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Check the request parameters."
	case ErrInvalidID:
		return "Invalid subject id."

	case ErrNotFound:
		return "Subject not found."
	case ErrInvalidQuestionSet:
		return "The question set for this subject is malformed."

	case ErrRateLimitExceeded:
		return "Too many requests. Try again later."

	case ErrInternal:
		return "Internal server error."
	default:
		return "Unexpected error."
	}
}
