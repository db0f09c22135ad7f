package handler

import (
	"net/http"
)

// SyncHandler defines the HTTP entry points of the sync workflows
type SyncHandler interface {
	// HandleTests lists known test keys (GET) or creates tests from a directory (POST)
	HandleTests(w http.ResponseWriter, r *http.Request)

	// HandleResults uploads a report and creates a test execution (POST)
	HandleResults(w http.ResponseWriter, r *http.Request)
}

// ResponseWriter wraps HTTP response writing functionality
type ResponseWriter interface {
	// WriteJSON writes payload as JSON with the given status and headers
	WriteJSON(w http.ResponseWriter, payload interface{}, statusCode int, headers map[string]string) error

	// WriteError writes an error response with appropriate status code
	WriteError(w http.ResponseWriter, message string, statusCode int) error
}
