package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/autora/contract-service/models"
	"github.com/autora/contract-service/services"
	"github.com/autora/contract-service/utils"
)

type contractService interface {
	CreateContract(ctx context.Context, req *models.ContractRequest) (*models.ContractResponse, error)
	GetContract(ctx context.Context, contractID string) (*models.ContractDetailsResponse, error)
	GetContractPDFLocation(ctx context.Context, contractID string) (string, error)
}

// objectFetcher resolves s3:// locations back to bytes for download.
type objectFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

type ContractHandler struct {
	service contractService
	objects objectFetcher
	logger  *utils.Logger
}

// NewContractHandler wires the contract endpoints. objects may be nil when
// documents are stored on the local filesystem.
func NewContractHandler(service contractService, objects objectFetcher) *ContractHandler {
	return &ContractHandler{
		service: service,
		objects: objects,
		logger:  utils.NewLogger("contract-api"),
	}
}

func (h *ContractHandler) Register(router *mux.Router) {
	router.HandleFunc("/v1/contracts", h.HandleCreate).Methods(http.MethodPost)
	router.HandleFunc("/v1/contracts/{contractId}", h.HandleGet).Methods(http.MethodGet)
	router.HandleFunc("/v1/contracts/{contractId}/pdf", h.HandleDownloadPDF).Methods(http.MethodGet)
}

func (h *ContractHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, &services.ValidationError{Message: "Malformed request body"})
		return
	}

	resp, err := h.service.CreateContract(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/contracts/"+resp.ContractID)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ContractHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	contractID := mux.Vars(r)["contractId"]

	resp, err := h.service.GetContract(r.Context(), contractID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ContractHandler) HandleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	contractID := mux.Vars(r)["contractId"]

	location, err := h.service.GetContractPDFLocation(r.Context(), contractID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := h.readDocument(r.Context(), location)
	if err != nil {
		h.logger.Error(r.Context(), "document missing at stored location", map[string]interface{}{
			"contract_id": contractID,
			"error":       err.Error(),
		})
		writeError(w, r, &services.NotFoundError{ContractID: contractID, Message: "PDF not found for contract"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename=`+contractID+`.pdf`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error(r.Context(), "failed to stream document", map[string]interface{}{
			"contract_id": contractID,
			"error":       err.Error(),
		})
	}
}

func (h *ContractHandler) readDocument(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "s3://") {
		if h.objects == nil {
			return nil, fmt.Errorf("object storage not configured for location %s", location)
		}
		_, key, _ := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
		readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return h.objects.Fetch(readCtx, key)
	}
	return os.ReadFile(location)
}
