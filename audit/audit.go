// Package audit writes the business event stream: a structured, masked log of
// contract lifecycle events, kept separate from operational logging. Audit
// calls never return an error and never panic, so a logging problem cannot
// abort a business operation.
package audit

import (
	"context"
	"time"

	"github.com/autora/contract-service/utils"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger struct {
	logger *utils.Logger
}

func NewLogger() *Logger {
	return &Logger{logger: utils.NewLogger("audit")}
}

// Mask hides an identifier before it reaches the audit stream: values of four
// runes or fewer become "****", longer values keep their first four runes
// followed by "****".
func Mask(data string) string {
	runes := []rune(data)
	if len(runes) <= 4 {
		return "****"
	}
	return string(runes[:4]) + "****"
}

func (l *Logger) LogContractCreated(ctx context.Context, contractID, purchaseRequestID, dealID string) {
	l.info(ctx, "CONTRACT_CREATED", map[string]interface{}{
		"contract_id":         Mask(contractID),
		"purchase_request_id": Mask(purchaseRequestID),
		"deal_id":             Mask(dealID),
		"status":              "SUCCESS",
	})
}

func (l *Logger) LogContractCreationFailed(ctx context.Context, purchaseRequestID, dealID, reason string) {
	l.error(ctx, "CONTRACT_CREATION_FAILED", map[string]interface{}{
		"purchase_request_id": Mask(purchaseRequestID),
		"deal_id":             Mask(dealID),
		"reason":              reason,
		"status":              "FAILURE",
	})
}

func (l *Logger) LogContractRetrieved(ctx context.Context, contractID string) {
	l.info(ctx, "CONTRACT_RETRIEVED", map[string]interface{}{
		"contract_id": Mask(contractID),
		"status":      "SUCCESS",
	})
}

func (l *Logger) LogContractRetrievalFailed(ctx context.Context, contractID, reason string) {
	l.warn(ctx, "CONTRACT_RETRIEVAL_FAILED", map[string]interface{}{
		"contract_id": Mask(contractID),
		"reason":      reason,
		"status":      "FAILURE",
	})
}

func (l *Logger) LogPDFGenerated(ctx context.Context, contractID, storageLocation string) {
	l.info(ctx, "PDF_GENERATED", map[string]interface{}{
		"contract_id":      Mask(contractID),
		"storage_location": Mask(storageLocation),
		"status":           "SUCCESS",
	})
}

func (l *Logger) LogPDFGenerationFailed(ctx context.Context, contractID, reason string) {
	l.error(ctx, "PDF_GENERATION_FAILED", map[string]interface{}{
		"contract_id": Mask(contractID),
		"reason":      reason,
		"status":      "FAILURE",
	})
}

func (l *Logger) LogEventPublished(ctx context.Context, eventType, contractID, topic string) {
	l.info(ctx, "EVENT_PUBLISHED", map[string]interface{}{
		"event_type":  eventType,
		"contract_id": Mask(contractID),
		"topic":       topic,
		"status":      "SUCCESS",
	})
}

func (l *Logger) LogEventPublishingFailed(ctx context.Context, eventType, contractID, topic, reason string) {
	l.error(ctx, "EVENT_PUBLISHING_FAILED", map[string]interface{}{
		"event_type":  eventType,
		"contract_id": Mask(contractID),
		"topic":       topic,
		"reason":      reason,
		"status":      "FAILURE",
	})
}

func (l *Logger) LogRetryAttempt(ctx context.Context, operation, identifier string, attempt, maxAttempts int) {
	l.warn(ctx, "RETRY_ATTEMPT", map[string]interface{}{
		"operation":    operation,
		"identifier":   Mask(identifier),
		"attempt":      attempt,
		"max_attempts": maxAttempts,
		"status":       "RETRY",
	})
}

func (l *Logger) info(ctx context.Context, event string, fields map[string]interface{}) {
	defer func() { _ = recover() }()
	fields["audit_timestamp"] = time.Now().Format(timestampFormat)
	l.logger.Info(ctx, event, fields)
}

func (l *Logger) warn(ctx context.Context, event string, fields map[string]interface{}) {
	defer func() { _ = recover() }()
	fields["audit_timestamp"] = time.Now().Format(timestampFormat)
	l.logger.Warn(ctx, event, fields)
}

func (l *Logger) error(ctx context.Context, event string, fields map[string]interface{}) {
	defer func() { _ = recover() }()
	fields["audit_timestamp"] = time.Now().Format(timestampFormat)
	l.logger.Error(ctx, event, fields)
}
