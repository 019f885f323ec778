package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"portfolio-assistant/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return fmt.Errorf("create conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListByVisitorID(ctx context.Context, visitorID string) ([]model.Conversation, error) {
	var list []model.Conversation
	err := r.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return list, nil
}

func (r *ConversationRepository) GetByIDAndVisitorID(ctx context.Context, id, visitorID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND visitor_id = ?", id, visitorID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) DeleteByIDAndVisitorID(ctx context.Context, id, visitorID string) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND visitor_id = ?", id, visitorID).
		Delete(&model.Conversation{}).Error
	if err != nil {
		return fmt.Errorf("delete conversation failed: %w", err)
	}
	return nil
}
