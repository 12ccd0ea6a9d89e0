package services

import (
	"fmt"
)

// ValidationError reports malformed or missing request input. Never retried,
// never audited beyond the generic validation log.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DuplicateContractError means a contract already exists for the purchase
// request, whether detected by the pre-check or by the storage unique index.
type DuplicateContractError struct {
	PurchaseRequestID string
}

func (e *DuplicateContractError) Error() string {
	return fmt.Sprintf("contract already exists for purchase request %s", e.PurchaseRequestID)
}

type NotFoundError struct {
	ContractID string
	Message    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.ContractID)
}

// GenerationError wraps any non-duplicate failure of the creation workflow,
// carrying the purchase request ID for audit correlation.
type GenerationError struct {
	PurchaseRequestID string
	Err               error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate contract for purchase request %s: %v", e.PurchaseRequestID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
