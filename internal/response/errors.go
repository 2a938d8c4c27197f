package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Survey-specific ───────────────────────────────────────────────
	ErrInvalidAccessToken ErrCode = "INVALID_ACCESS_TOKEN"
	ErrSurveyInactive     ErrCode = "SURVEY_INACTIVE"
	ErrAlreadyCompleted   ErrCode = "ALREADY_COMPLETED"
	ErrUnansweredQuestion ErrCode = "UNANSWERED_QUESTION"
	ErrTokenExhausted     ErrCode = "TOKEN_GENERATION_EXHAUSTED"
	ErrPersistence        ErrCode = "PERSISTENCE_ERROR"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is not valid."
	case ErrInvalidPayload:
		return "The request payload is not valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Survey-specific ───────────────────────────────────────────────
	case ErrInvalidAccessToken:
		return "This survey link is not valid."
	case ErrSurveyInactive:
		return "This survey is not accepting responses."
	case ErrAlreadyCompleted:
		return "This survey has already been completed."
	case ErrUnansweredQuestion:
		return "Every question must be answered before submitting."
	case ErrTokenExhausted:
		return "Could not generate a unique access token. Please retry the upload."
	case ErrPersistence:
		return "The operation was rejected by the data store."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
