package model

import "time"

// Conversation groups a visitor's chat messages. Visitors are identified by
// an opaque id minted by the site frontend; there is no account system.
type Conversation struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	VisitorID string    `gorm:"size:64;not null;index" json:"visitor_id"`
	Title     string    `gorm:"size:128;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single chat turn, persisted asynchronously by the worker.
type Message struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	ConversationID string    `gorm:"size:64;not null;index" json:"conversation_id"`
	VisitorID      string    `gorm:"size:64;not null;index" json:"visitor_id"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Model          string    `gorm:"size:64" json:"model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
