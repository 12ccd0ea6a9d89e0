package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autora/contract-service/audit"
	"github.com/autora/contract-service/models"
	"github.com/autora/contract-service/utils"
)

type outboxStore interface {
	ListPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkDelivered(ctx context.Context, id string, attempts int) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type DispatcherConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Dispatcher drains pending outbox rows to the broker. Each row is published
// with retries; exhaustion marks the row failed so it can be inspected, and
// the originating request is never affected either way.
type Dispatcher struct {
	outbox    outboxStore
	publisher eventPublisher
	auditor   *audit.Logger
	logger    *utils.Logger
	cfg       DispatcherConfig

	stop chan struct{}
	done chan struct{}
}

func NewDispatcher(outbox outboxStore, publisher eventPublisher, auditor *audit.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Dispatcher{
		outbox:    outbox,
		publisher: publisher,
		auditor:   auditor,
		logger:    utils.NewLogger("outbox-dispatcher"),
		cfg:       cfg,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	go d.run()
}

func (d *Dispatcher) Stop() {
	close(d.stop)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.Drain(context.Background())
		}
	}
}

// Drain publishes one batch of pending messages. Exposed so shutdown and
// tests can flush synchronously.
func (d *Dispatcher) Drain(ctx context.Context) {
	msgs, err := d.outbox.ListPending(ctx, d.cfg.BatchSize)
	if err != nil {
		d.logger.Error(ctx, "failed to list pending outbox messages", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, msg := range msgs {
		d.dispatch(ctx, msg)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg *models.OutboxMessage) {
	eventType := eventTypeOf(msg.Payload)
	attempts := 0

	retryCfg := utils.DefaultRetryConfig()
	retryCfg.MaxAttempts = d.cfg.MaxAttempts
	retryCfg.OnRetry = func(attempt int, err error) {
		d.auditor.LogRetryAttempt(ctx, "publish_"+msg.Topic, msg.Key, attempt, d.cfg.MaxAttempts)
	}

	err := utils.Retry(ctx, retryCfg, func() error {
		attempts++
		return d.publisher.Publish(ctx, msg.Topic, msg.Key, msg.Payload)
	})
	if err != nil {
		if markErr := d.outbox.MarkFailed(ctx, msg.ID, attempts, err.Error()); markErr != nil {
			d.logger.Error(ctx, "failed to mark outbox message failed", map[string]interface{}{"error": markErr.Error()})
		}
		d.auditor.LogEventPublishingFailed(ctx, eventType, msg.Key, msg.Topic, err.Error())
		return
	}

	if markErr := d.outbox.MarkDelivered(ctx, msg.ID, attempts); markErr != nil {
		d.logger.Error(ctx, "failed to mark outbox message delivered", map[string]interface{}{"error": markErr.Error()})
	}
	d.auditor.LogEventPublished(ctx, eventType, msg.Key, msg.Topic)
}

func eventTypeOf(payload []byte) string {
	var envelope struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.EventType == "" {
		return "UNKNOWN"
	}
	return envelope.EventType
}
