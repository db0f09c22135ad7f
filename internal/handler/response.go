package handler

import (
	"encoding/json"
	"net/http"
)

// ResponseWriterImpl implements ResponseWriter interface
type ResponseWriterImpl struct{}

// NewResponseWriter creates a new response writer instance
func NewResponseWriter() *ResponseWriterImpl {
	return &ResponseWriterImpl{}
}

// WriteJSON writes a JSON response with headers and body
func (r *ResponseWriterImpl) WriteJSON(w http.ResponseWriter, payload interface{}, statusCode int, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return err
	}

	for key, value := range headers {
		w.Header().Set(key, value)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_, err = w.Write(append(body, '\n'))
	return err
}

// WriteError writes an error response with appropriate status code
func (r *ResponseWriterImpl) WriteError(w http.ResponseWriter, message string, statusCode int) error {
	http.Error(w, message, statusCode)
	return nil
}
