package apperr

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeValidation       Code = "VALIDATION"
	CodeNotFound         Code = "NOT_FOUND"
	CodeBlocked          Code = "BLOCKED"
	CodeDuplicatePhone   Code = "DUPLICATE_PHONE"
	CodeNotAuthenticated Code = "NOT_AUTHENTICATED"
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
)
