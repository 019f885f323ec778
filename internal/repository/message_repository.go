package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"portfolio-assistant/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListByConversationID returns messages oldest first; limit <= 0 means all.
func (r *MessageRepository) ListByConversationID(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []model.Message
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return list, nil
}

// ListRecentByConversationID returns the newest `limit` messages in
// chronological order, for prompt-context building.
func (r *MessageRepository) ListRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	var list []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

func (r *MessageRepository) DeleteByConversationID(ctx context.Context, conversationID string) error {
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&model.Message{}).Error
	if err != nil {
		return fmt.Errorf("delete messages by conversation failed: %w", err)
	}
	return nil
}
