package apierr

import "net/http"

// --- Common ---

func InvalidRequestBody() *Error {
	return New(CodeInvalidRequestBody, http.StatusBadRequest, "Invalid request body")
}

func InternalError(cause error) *Error {
	return Wrap(CodeInternalError, http.StatusInternalServerError, "Internal server error", cause)
}

func NotImplemented(feature string) *Error {
	return New(CodeNotImplemented, http.StatusNotImplemented, feature+" is not configured")
}

// --- Webhook ---

func MissingWebhookToken() *Error {
	return New(CodeMissingWebhookToken, http.StatusUnauthorized, "Missing X-Webhook-Token header")
}

func InvalidWebhookToken() *Error {
	return New(CodeInvalidWebhookToken, http.StatusUnauthorized, "Invalid webhook token")
}

// --- Ingestion ---

func RepositoryURLRequired() *Error {
	return New(CodeRepositoryURLRequired, http.StatusBadRequest, "repositoryUrl is required")
}

func ProcessingNotFound() *Error {
	return New(CodeProcessingNotFound, http.StatusNotFound, "Processing run not found")
}

func InvalidProcessingID() *Error {
	return New(CodeInvalidProcessingID, http.StatusBadRequest, "Invalid processing ID")
}

// --- Search ---

func QueryRequired() *Error {
	return New(CodeQueryRequired, http.StatusBadRequest, "Query text is required")
}

func NoResults() *Error {
	return New(CodeNoResults, http.StatusNotFound, "No matching code found")
}

func EmbeddingFailed(cause error) *Error {
	return Wrap(CodeEmbeddingFailed, http.StatusInternalServerError, "Embedding generation failed", cause)
}

func SearchFailed(cause error) *Error {
	return Wrap(CodeSearchFailed, http.StatusInternalServerError, "Search failed", cause)
}

// --- Projects ---

func ProjectListFailed(cause error) *Error {
	return Wrap(CodeProjectListFailed, http.StatusInternalServerError, "Failed to list projects", cause)
}

// --- Health ---

func DatabaseNotReady() *Error {
	return New(CodeDatabaseNotReady, http.StatusServiceUnavailable, "Database not ready")
}
