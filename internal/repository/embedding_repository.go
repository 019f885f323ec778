package repository

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio-assistant/internal/model"
)

// EmbeddingRepository persists vector embeddings. It satisfies rag.Store.
type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Put upserts by primary key: re-ingesting a document with deterministic ids
// overwrites rows instead of duplicating them.
func (r *EmbeddingRepository) Put(ctx context.Context, emb *model.VectorEmbedding) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(emb).Error
	if err != nil {
		return fmt.Errorf("put embedding failed: %w", err)
	}
	return nil
}

func (r *EmbeddingRepository) GetAll(ctx context.Context) ([]model.VectorEmbedding, error) {
	var list []model.VectorEmbedding
	if err := r.db.WithContext(ctx).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list embeddings failed: %w", err)
	}
	return list, nil
}

func (r *EmbeddingRepository) GetByCategory(ctx context.Context, category string) ([]model.VectorEmbedding, error) {
	var list []model.VectorEmbedding
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("importance DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list embeddings by category failed: %w", err)
	}
	return list, nil
}

// GetByMinImportance filters and sorts client-side after a full scan; there
// is no importance index worth maintaining at this corpus size.
func (r *EmbeddingRepository) GetByMinImportance(ctx context.Context, threshold int) ([]model.VectorEmbedding, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.VectorEmbedding, 0, len(all))
	for _, e := range all {
		if e.Importance >= threshold {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Importance > filtered[j].Importance
	})
	return filtered, nil
}

func (r *EmbeddingRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&model.VectorEmbedding{}).Error
	if err != nil {
		return fmt.Errorf("delete embeddings by document failed: %w", err)
	}
	return nil
}
