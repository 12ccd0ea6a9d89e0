package models

import (
	"time"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusDelivered OutboxStatus = "delivered"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxMessage is a notification recorded in the same transaction as the
// business write it announces. A background dispatcher drains pending rows to
// the broker, so delivery never blocks or fails the originating request.
type OutboxMessage struct {
	ID        string       `json:"id" gorm:"column:id;primaryKey;size:36"`
	Topic     string       `json:"topic" gorm:"column:topic;size:200;not null"`
	Key       string       `json:"key" gorm:"column:key;size:100;not null"`
	Payload   []byte       `json:"payload" gorm:"column:payload;type:jsonb;not null"`
	Status    OutboxStatus `json:"status" gorm:"column:status;size:20;not null;default:'pending';index"`
	Attempts  int          `json:"attempts" gorm:"column:attempts;not null;default:0"`
	LastError string       `json:"last_error" gorm:"column:last_error"`
	CreatedAt time.Time    `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (OutboxMessage) TableName() string {
	return "contract_outbox"
}

const EventTypeContractCreated = "CONTRACT_CREATED"

type ContractCreatedEvent struct {
	EventID        string                   `json:"eventId"`
	EventType      string                   `json:"eventType"`
	EventTimestamp string                   `json:"eventTimestamp"`
	Data           ContractCreatedEventData `json:"data"`
}

type ContractCreatedEventData struct {
	ContractID          string  `json:"contractId"`
	PurchaseRequestID   string  `json:"purchaseRequestId"`
	DealID              string  `json:"dealId"`
	ContractPDFLocation *string `json:"contractPdfLocation"`
}
