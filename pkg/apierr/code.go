package apierr

// Code is a machine-readable error code returned in API responses.
type Code string

// Common errors.
const (
	CodeInvalidRequestBody Code = "INVALID_REQUEST_BODY"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeNotImplemented     Code = "NOT_IMPLEMENTED"
)

// Webhook errors.
const (
	CodeMissingWebhookToken Code = "MISSING_WEBHOOK_TOKEN"
	CodeInvalidWebhookToken Code = "INVALID_WEBHOOK_TOKEN"
)

// Ingestion errors.
const (
	CodeRepositoryURLRequired Code = "REPOSITORY_URL_REQUIRED"
	CodeProcessingNotFound    Code = "PROCESSING_NOT_FOUND"
	CodeInvalidProcessingID   Code = "INVALID_PROCESSING_ID"
)

// Search errors.
const (
	CodeQueryRequired   Code = "QUERY_REQUIRED"
	CodeNoResults       Code = "NO_RESULTS"
	CodeEmbeddingFailed Code = "EMBEDDING_FAILED"
	CodeSearchFailed    Code = "SEARCH_FAILED"
)

// Project errors.
const (
	CodeProjectListFailed Code = "PROJECT_LIST_FAILED"
)

// Health errors.
const (
	CodeDatabaseNotReady Code = "DATABASE_NOT_READY"
)
