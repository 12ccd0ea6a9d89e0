package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/autora/contract-service/models"
	"github.com/autora/contract-service/pdf"
	"github.com/autora/contract-service/services"
	"github.com/autora/contract-service/utils"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// writeError translates a workflow error into the uniform error body. Callers
// never see internal error text; each code carries a fixed message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)
	writeJSON(w, status, models.ErrorResponse{
		ErrorCode: code,
		Message:   message,
		Timestamp: time.Now(),
		TraceID:   utils.GetTraceID(r.Context()),
	})
}

func classifyError(err error) (int, string, string) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, models.ErrorCodeValidationFailed, "Invalid request: " + validationErr.Message
	}

	var duplicateErr *services.DuplicateContractError
	if errors.As(err, &duplicateErr) {
		return http.StatusConflict, models.ErrorCodeContractGenerationFailed, "Contract already exists for this purchase request"
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound, models.ErrorCodeContractNotFound, notFoundErr.Message
	}

	// check the PDF error before the generic generation error that wraps it
	var pdfErr *pdf.GenerationError
	if errors.As(err, &pdfErr) {
		return http.StatusInternalServerError, models.ErrorCodePDFGenerationFailed, "Failed to generate PDF document"
	}

	var generationErr *services.GenerationError
	if errors.As(err, &generationErr) {
		return http.StatusInternalServerError, models.ErrorCodeContractGenerationFailed, "Failed to generate contract"
	}

	return http.StatusInternalServerError, models.ErrorCodeInternalServerError, "An unexpected error occurred"
}
