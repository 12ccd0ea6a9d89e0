package models

import (
	"time"
)

// ContractStatus reported to callers. A contract is SIGNED once the creation
// workflow has completed.
type ContractStatus string

const (
	ContractStatusSigned ContractStatus = "SIGNED"
)

type Contract struct {
	ContractID         string     `json:"contract_id" gorm:"column:contract_id;primaryKey;size:50"`
	PurchaseRequestID  string     `json:"purchase_request_id" gorm:"column:purchase_request_id;size:100;not null;uniqueIndex"`
	DealID             string     `json:"deal_id" gorm:"column:deal_id;size:100;not null;index"`
	CustomerDetails    JSON       `json:"customer_details" gorm:"column:customer_details;type:jsonb"`
	FinanceDetails     JSON       `json:"finance_details" gorm:"column:finance_details;type:jsonb"`
	MassOrders         JSONArray  `json:"mass_orders" gorm:"column:mass_orders;type:jsonb"`
	PDFStorageLocation *string    `json:"pdf_storage_location" gorm:"column:pdf_storage_location;size:500"`
	CreatedAt          time.Time  `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt          *time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Contract) TableName() string {
	return "contracts"
}

type DealData struct {
	DealID                 string    `json:"dealId"`
	Customer               JSON      `json:"customer"`
	CustomerFinanceDetails JSON      `json:"customerFinanceDetails"`
	RetailerInfo           JSON      `json:"retailerInfo"`
	MassOrders             JSONArray `json:"massOrders"`
}

type ContractRequest struct {
	PurchaseRequestID string    `json:"purchaseRequestId"`
	DealID            string    `json:"dealId"`
	DealData          *DealData `json:"dealData"`
}

type ContractResponse struct {
	ContractID     string         `json:"contractId"`
	ContractURL    string         `json:"contractUrl"`
	ContractStatus ContractStatus `json:"contractStatus"`
	SignedAt       time.Time      `json:"signedAt"`
}

type ContractDetailsResponse struct {
	ContractID         string     `json:"contractId"`
	PurchaseRequestID  string     `json:"purchaseRequestId"`
	DealID             string     `json:"dealId"`
	CustomerDetails    JSON       `json:"customerDetails"`
	FinanceDetails     JSON       `json:"financeDetails"`
	MassOrders         JSONArray  `json:"massOrders"`
	PDFStorageLocation *string    `json:"pdfStorageLocation"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          *time.Time `json:"updatedAt"`
}

type ErrorResponse struct {
	ErrorCode string    `json:"errorCode"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"traceId"`
}

const (
	ErrorCodeContractNotFound         = "CONTRACT_NOT_FOUND"
	ErrorCodeContractGenerationFailed = "CONTRACT_GENERATION_FAILED"
	ErrorCodePDFGenerationFailed      = "PDF_GENERATION_FAILED"
	ErrorCodeValidationFailed         = "VALIDATION_FAILED"
	ErrorCodeInternalServerError      = "INTERNAL_SERVER_ERROR"
)
