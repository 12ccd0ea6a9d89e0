package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autora/contract-service/audit"
	"github.com/autora/contract-service/events"
	"github.com/autora/contract-service/models"
	"github.com/autora/contract-service/utils"
)

const maxIdentifierLength = 100

type contractStore interface {
	Save(ctx context.Context, contract *models.Contract) error
	FindByID(ctx context.Context, contractID string) (*models.Contract, error)
	ExistsByPurchaseRequestID(ctx context.Context, purchaseRequestID string) (bool, error)
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

type documentRenderer interface {
	GenerateDocument(ctx context.Context, contract *models.Contract) (string, error)
}

type outboxWriter interface {
	Enqueue(ctx context.Context, msg *models.OutboxMessage) error
}

// ContractService orchestrates contract creation and retrieval: dedup check,
// persist, render, persist the render location together with an outbox row,
// audit.
type ContractService struct {
	store    contractStore
	renderer documentRenderer
	outbox   outboxWriter
	auditor  *audit.Logger
	logger   *utils.Logger
	topic    string
}

func NewContractService(store contractStore, renderer documentRenderer, outbox outboxWriter, auditor *audit.Logger, topic string) *ContractService {
	return &ContractService{
		store:    store,
		renderer: renderer,
		outbox:   outbox,
		auditor:  auditor,
		logger:   utils.NewLogger("contract-service"),
		topic:    topic,
	}
}

func (s *ContractService) CreateContract(ctx context.Context, req *models.ContractRequest) (*models.ContractResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "starting contract generation", map[string]interface{}{
		"purchase_request_id": audit.Mask(req.PurchaseRequestID),
	})

	resp, err := s.createContract(ctx, req)
	if err != nil {
		s.auditor.LogContractCreationFailed(ctx, req.PurchaseRequestID, req.DealID, err.Error())

		var dup *DuplicateContractError
		if errors.As(err, &dup) {
			return nil, err
		}
		return nil, &GenerationError{PurchaseRequestID: req.PurchaseRequestID, Err: err}
	}

	return resp, nil
}

func (s *ContractService) createContract(ctx context.Context, req *models.ContractRequest) (*models.ContractResponse, error) {
	exists, err := s.store.ExistsByPurchaseRequestID(ctx, req.PurchaseRequestID)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if exists {
		return nil, &DuplicateContractError{PurchaseRequestID: req.PurchaseRequestID}
	}

	contract := &models.Contract{
		ContractID:        generateContractID(),
		PurchaseRequestID: req.PurchaseRequestID,
		DealID:            req.DealID,
		CustomerDetails:   req.DealData.Customer,
		FinanceDetails:    req.DealData.CustomerFinanceDetails,
		MassOrders:        req.DealData.MassOrders,
		CreatedAt:         time.Now(),
	}

	if err := s.store.Save(ctx, contract); err != nil {
		// two requests can pass the pre-check concurrently; the unique
		// index decides the loser
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &DuplicateContractError{PurchaseRequestID: req.PurchaseRequestID}
		}
		return nil, fmt.Errorf("failed to persist contract: %w", err)
	}

	s.logger.Info(ctx, "contract saved", map[string]interface{}{
		"contract_id": audit.Mask(contract.ContractID),
	})

	location, err := s.renderer.GenerateDocument(ctx, contract)
	if err != nil {
		// the contract row stays behind without a document location
		return nil, err
	}

	payload, err := events.EncodeContractCreatedEvent(withLocation(contract, location))
	if err != nil {
		return nil, fmt.Errorf("failed to encode contract event: %w", err)
	}

	err = s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()
		contract.PDFStorageLocation = &location
		contract.UpdatedAt = &now
		if err := s.store.Save(txCtx, contract); err != nil {
			return fmt.Errorf("failed to persist document location: %w", err)
		}
		return s.outbox.Enqueue(txCtx, &models.OutboxMessage{
			ID:      uuid.NewString(),
			Topic:   s.topic,
			Key:     contract.ContractID,
			Payload: payload,
		})
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogContractCreated(ctx, contract.ContractID, contract.PurchaseRequestID, contract.DealID)

	s.logger.Info(ctx, "contract generation completed", map[string]interface{}{
		"contract_id": audit.Mask(contract.ContractID),
	})

	return &models.ContractResponse{
		ContractID:     contract.ContractID,
		ContractURL:    location,
		ContractStatus: models.ContractStatusSigned,
		SignedAt:       time.Now(),
	}, nil
}

func (s *ContractService) GetContract(ctx context.Context, contractID string) (*models.ContractDetailsResponse, error) {
	contract, err := s.store.FindByID(ctx, contractID)
	if err != nil {
		s.auditor.LogContractRetrievalFailed(ctx, contractID, err.Error())
		return nil, fmt.Errorf("failed to retrieve contract: %w", err)
	}
	if contract == nil {
		s.auditor.LogContractRetrievalFailed(ctx, contractID, "Contract not found")
		return nil, &NotFoundError{ContractID: contractID, Message: "Contract not found"}
	}

	s.auditor.LogContractRetrieved(ctx, contractID)

	return &models.ContractDetailsResponse{
		ContractID:         contract.ContractID,
		PurchaseRequestID:  contract.PurchaseRequestID,
		DealID:             contract.DealID,
		CustomerDetails:    contract.CustomerDetails,
		FinanceDetails:     contract.FinanceDetails,
		MassOrders:         contract.MassOrders,
		PDFStorageLocation: contract.PDFStorageLocation,
		CreatedAt:          contract.CreatedAt,
		UpdatedAt:          contract.UpdatedAt,
	}, nil
}

// GetContractPDFLocation returns the stored document location. The transport
// layer is responsible for resolving it to bytes and for the 404 when the
// underlying file has gone missing.
func (s *ContractService) GetContractPDFLocation(ctx context.Context, contractID string) (string, error) {
	contract, err := s.store.FindByID(ctx, contractID)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve contract: %w", err)
	}
	if contract == nil {
		return "", &NotFoundError{ContractID: contractID, Message: "Contract not found"}
	}
	if contract.PDFStorageLocation == nil {
		return "", &NotFoundError{ContractID: contractID, Message: "PDF not found for contract"}
	}
	return *contract.PDFStorageLocation, nil
}

func validateRequest(req *models.ContractRequest) error {
	if req == nil {
		return &ValidationError{Message: "Request body is required"}
	}
	if strings.TrimSpace(req.PurchaseRequestID) == "" {
		return &ValidationError{Message: "Purchase request ID is required"}
	}
	if len(req.PurchaseRequestID) > maxIdentifierLength {
		return &ValidationError{Message: "Purchase request ID must not exceed 100 characters"}
	}
	if strings.TrimSpace(req.DealID) == "" {
		return &ValidationError{Message: "Deal ID is required"}
	}
	if len(req.DealID) > maxIdentifierLength {
		return &ValidationError{Message: "Deal ID must not exceed 100 characters"}
	}
	if req.DealData == nil {
		return &ValidationError{Message: "Deal data is required"}
	}
	if req.DealData.Customer == nil {
		return &ValidationError{Message: "Customer details are required"}
	}
	if req.DealData.CustomerFinanceDetails == nil {
		return &ValidationError{Message: "Customer finance details are required"}
	}
	if req.DealData.MassOrders == nil {
		return &ValidationError{Message: "Mass orders are required"}
	}
	return nil
}

// generateContractID returns "CONTRACT-" plus the first 8 hex characters of a
// random 128-bit identifier, uppercased.
func generateContractID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CONTRACT-" + id[:8]
}

func withLocation(contract *models.Contract, location string) *models.Contract {
	c := *contract
	c.PDFStorageLocation = &location
	return &c
}
