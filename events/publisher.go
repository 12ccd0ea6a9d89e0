// Package events publishes contract notifications to Kafka. Messages are
// recorded in a transactional outbox by the workflow and drained here by a
// background dispatcher, so delivery is decoupled from the HTTP request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/autora/contract-service/models"
)

const eventTimestampFormat = "2006-01-02T15:04:05"

// NewContractCreatedEvent builds the CONTRACT_CREATED payload downstream
// consumers depend on.
func NewContractCreatedEvent(contract *models.Contract) models.ContractCreatedEvent {
	return models.ContractCreatedEvent{
		EventID:        uuid.NewString(),
		EventType:      models.EventTypeContractCreated,
		EventTimestamp: time.Now().Format(eventTimestampFormat),
		Data: models.ContractCreatedEventData{
			ContractID:          contract.ContractID,
			PurchaseRequestID:   contract.PurchaseRequestID,
			DealID:              contract.DealID,
			ContractPDFLocation: contract.PDFStorageLocation,
		},
	}
}

// EncodeContractCreatedEvent marshals the event for an outbox row keyed by
// contract ID.
func EncodeContractCreatedEvent(contract *models.Contract) ([]byte, error) {
	return json.Marshal(NewContractCreatedEvent(contract))
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	if w, ok := p.writer.(*kafka.Writer); ok {
		return w.Close()
	}
	return nil
}
