package stores

import (
	"context"

	"github.com/autora/contract-service/models"
	"gorm.io/gorm"
)

type OutboxStore struct {
	BaseStore
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{BaseStore: BaseStore{db: db}}
}

// Enqueue records a pending message. Callers run it inside the same
// transaction as the business write it belongs to.
func (s *OutboxStore) Enqueue(ctx context.Context, msg *models.OutboxMessage) error {
	msg.Status = models.OutboxStatusPending
	return s.GetDB(ctx).Create(msg).Error
}

func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	var msgs []*models.OutboxMessage
	query := s.GetDB(ctx).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *OutboxStore) MarkDelivered(ctx context.Context, id string, attempts int) error {
	return s.GetDB(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.OutboxStatusDelivered,
			"attempts": attempts,
		}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	return s.GetDB(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.OutboxStatusFailed,
			"attempts":   attempts,
			"last_error": lastError,
		}).Error
}
