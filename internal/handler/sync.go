package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"xray-sync/internal/repository"
	"xray-sync/internal/service"
)

// maxRequestBody caps POST /tests and POST /results payloads
const maxRequestBody = 64 << 10

// TestsRequest is the body of POST /tests
type TestsRequest struct {
	Path string `json:"path"`
}

// TestsResponse is returned by POST /tests
type TestsResponse struct {
	Path     string                    `json:"path"`
	Outcomes []service.ScenarioOutcome `json:"outcomes"`
}

// ResultsRequest is the body of POST /results
type ResultsRequest struct {
	ReportPath string   `json:"reportPath"`
	Summary    string   `json:"summary"`
	TestKeys   []string `json:"testKeys"`
}

// SyncHandlerImpl implements SyncHandler interface
type SyncHandlerImpl struct {
	syncService service.SyncService
	registry    repository.KeyRegistry
	writer      ResponseWriter
}

// NewSyncHandler creates a new sync handler instance
func NewSyncHandler(
	syncService service.SyncService,
	registry repository.KeyRegistry,
	writer ResponseWriter,
) *SyncHandlerImpl {
	return &SyncHandlerImpl{
		syncService: syncService,
		registry:    registry,
		writer:      writer,
	}
}

// HandleTests processes HTTP requests to the /tests endpoint
func (h *SyncHandlerImpl) HandleTests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTests(w, r)
	case http.MethodPost:
		h.createTests(w, r)
	default:
		_ = h.writer.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SyncHandlerImpl) listTests(w http.ResponseWriter, r *http.Request) {
	keys, err := h.registry.All(r.Context())
	if err != nil {
		_ = h.writer.WriteError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	headers := map[string]string{"X-Test-Count": strconv.Itoa(len(keys))}
	if err := h.writer.WriteJSON(w, keys, http.StatusOK, headers); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *SyncHandlerImpl) createTests(w http.ResponseWriter, r *http.Request) {
	var req TestsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Path == "" {
		_ = h.writer.WriteError(w, "missing path in payload", http.StatusBadRequest)
		return
	}

	outcomes, err := h.syncService.CreateTestsFromDirectory(r.Context(), req.Path)
	if err != nil {
		_ = h.writer.WriteError(w, err.Error(), statusFor(err))
		return
	}

	if outcomes == nil {
		outcomes = []service.ScenarioOutcome{}
	}

	headers := map[string]string{"X-Test-Count": strconv.Itoa(len(outcomes))}
	_ = h.writer.WriteJSON(w, TestsResponse{Path: req.Path, Outcomes: outcomes}, http.StatusOK, headers)
}

// HandleResults processes HTTP requests to the /results endpoint
func (h *SyncHandlerImpl) HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = h.writer.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResultsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.ReportPath == "" {
		_ = h.writer.WriteError(w, "missing reportPath in payload", http.StatusBadRequest)
		return
	}

	outcome := h.syncService.UploadResults(r.Context(), req.ReportPath, req.Summary, req.TestKeys)

	// A successful upload is reported as such even when the execution failed;
	// the outcome body carries that error.
	statusCode := http.StatusOK
	if !outcome.Uploaded {
		statusCode = statusFor(outcome.Err)
	}

	headers := make(map[string]string)
	if outcome.ExecutionKey != "" {
		headers["X-Execution-Key"] = outcome.ExecutionKey
	}

	_ = h.writer.WriteJSON(w, outcome, statusCode, headers)
}

func (h *SyncHandlerImpl) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = h.writer.WriteError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		_ = h.writer.WriteError(w, "Error reading request body", http.StatusBadRequest)
		return false
	}
	defer func() { _ = r.Body.Close() }()

	if err := json.Unmarshal(body, v); err != nil {
		_ = h.writer.WriteError(w, "Error parsing JSON payload", http.StatusBadRequest)
		return false
	}

	return true
}

// statusFor maps a workflow error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrDisabled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, service.ErrRemoteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}
