package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// VectorEmbedding is the stored and searched retrieval unit: one per chunk.
// The vector is stored as a JSON array of float32 for portability.
type VectorEmbedding struct {
	ID         string    `gorm:"primaryKey;size:128" json:"id"`
	DocumentID string    `gorm:"size:64;not null;index" json:"document_id"`
	ChunkID    string    `gorm:"size:64;not null" json:"chunk_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:text" json:"-"`
	Section    string    `gorm:"size:32;index" json:"section"`
	Importance int       `gorm:"not null;index" json:"importance"`
	Keywords   string    `gorm:"size:1024" json:"-"` // JSON array of string
	DocTitle   string    `gorm:"size:256" json:"doc_title"`
	Category   string    `gorm:"size:32;index" json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingID derives the deterministic record id so re-ingesting the same
// document upserts instead of duplicating rows.
func EmbeddingID(documentID, chunkID string) string {
	return fmt.Sprintf("%s_%s", documentID, chunkID)
}

// Vector returns the parsed embedding; nil on parse error.
func (e *VectorEmbedding) Vector() []float32 {
	if e.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Embedding), &v)
	return v
}

// SetVector stores the embedding as JSON.
func (e *VectorEmbedding) SetVector(vec []float32) {
	if len(vec) == 0 {
		e.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	e.Embedding = string(b)
}

// KeywordList returns the parsed keyword list; nil on parse error.
func (e *VectorEmbedding) KeywordList() []string {
	if e.Keywords == "" {
		return nil
	}
	var kw []string
	_ = json.Unmarshal([]byte(e.Keywords), &kw)
	return kw
}

// SetKeywords stores the keyword list as JSON.
func (e *VectorEmbedding) SetKeywords(keywords []string) {
	if len(keywords) == 0 {
		e.Keywords = "[]"
		return
	}
	b, _ := json.Marshal(keywords)
	e.Keywords = string(b)
}

// SearchResult is an ephemeral per-query view; it is never persisted.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
	Section    string  `json:"section"`
	Importance int     `json:"importance"`
	DocTitle   string  `json:"doc_title"`
	Category   string  `json:"category"`
}

// RetrievedContext is the context assembler's output handed to the prompt
// generator. Confidence 0 with empty context means "answer without retrieval".
type RetrievedContext struct {
	Context    string         `json:"context"`
	Sources    []SearchResult `json:"sources"`
	Confidence float64        `json:"confidence"`
}
