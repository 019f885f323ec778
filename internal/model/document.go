package model

import (
	"encoding/json"
	"time"
)

// Document categories form a closed set; anything unrecognized becomes CategoryOther.
const (
	CategoryResume     = "resume"
	CategoryExperience = "experience"
	CategoryPortfolio  = "portfolio"
	CategoryPersonal   = "personal"
	CategoryOther      = "other"
)

// Document types detected from the source file extension.
const (
	DocTypePDF      = "pdf"
	DocTypeMarkdown = "markdown"
	DocTypeText     = "text"
)

// Document is an ingested source text. Chunks are serialized as a JSON array
// alongside the document so a single read returns the full ingest result.
type Document struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	FileName  string    `gorm:"size:256;not null" json:"file_name"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	Chunks    string    `gorm:"type:longtext" json:"-"` // JSON array of Chunk
	Title     string    `gorm:"size:256" json:"title"`
	Author    string    `gorm:"size:128" json:"author"`
	Size      int64     `json:"size"`
	WordCount int       `json:"word_count"`
	Language  string    `gorm:"size:16" json:"language"`
	Tags      string    `gorm:"size:512" json:"-"` // JSON array of string
	Category  string    `gorm:"size:32;not null;index" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChunkList returns the parsed chunk array; nil on parse error.
func (d *Document) ChunkList() []Chunk {
	if d.Chunks == "" {
		return nil
	}
	var chunks []Chunk
	_ = json.Unmarshal([]byte(d.Chunks), &chunks)
	return chunks
}

// SetChunks stores the chunk array as JSON.
func (d *Document) SetChunks(chunks []Chunk) {
	if len(chunks) == 0 {
		d.Chunks = "[]"
		return
	}
	b, _ := json.Marshal(chunks)
	d.Chunks = string(b)
}

// TagList returns the parsed tag set; nil on parse error.
func (d *Document) TagList() []string {
	if d.Tags == "" {
		return nil
	}
	var tags []string
	_ = json.Unmarshal([]byte(d.Tags), &tags)
	return tags
}

// SetTags stores the tag set as JSON.
func (d *Document) SetTags(tags []string) {
	if len(tags) == 0 {
		d.Tags = "[]"
		return
	}
	b, _ := json.Marshal(tags)
	d.Tags = string(b)
}

// Chunk is a contiguous word-window slice of a document's text. Chunks are
// created in a batch when their document is processed and never mutated.
type Chunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	StartWord int           `json:"start_word"`
	EndWord   int           `json:"end_word"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// ChunkMetadata carries the retrieval annotations computed at chunking time.
type ChunkMetadata struct {
	Section    string   `json:"section"`
	Importance int      `json:"importance"` // 1..10
	Keywords   []string `json:"keywords"`   // up to 10, most frequent first
	Context    string   `json:"context"`
}
