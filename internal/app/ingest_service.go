package app

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-assistant/internal/model"
	"portfolio-assistant/internal/pkg/pdfextract"
	"portfolio-assistant/internal/rag"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
)

// DocumentStore is the persistence seam for documents.
type DocumentStore interface {
	Save(ctx context.Context, doc *model.Document) error
	List(ctx context.Context) ([]model.Document, error)
	GetByID(ctx context.Context, id string) (*model.Document, error)
	DeleteByID(ctx context.Context, id string) error
}

// IngestService runs the ingestion pipeline: resolve text, chunk, embed,
// replace the document's embeddings and persist the document.
type IngestService struct {
	docRepo      DocumentStore
	store        rag.Store
	chunkSize    int
	chunkOverlap int
}

func NewIngestService(docRepo DocumentStore, store rag.Store, chunkSize, chunkOverlap int) *IngestService {
	if chunkSize <= 0 {
		chunkSize = rag.DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = rag.DefaultChunkOverlap
	}
	return &IngestService{
		docRepo:      docRepo,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// IngestInput describes a document to ingest. Either Content or Path must be
// set. DocumentID is only set when re-ingesting an existing document.
type IngestInput struct {
	DocumentID string
	Name       string
	Content    string
	Path       string
	Category   string
	Tags       []string
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Ingest processes the document end to end. Prior embeddings for the same
// document id are deleted first, then per-chunk writes are issued
// concurrently; a search running at the same moment may observe a partial
// set for this one document, which is acceptable for a single-writer site.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	name := strings.TrimSpace(input.Name)
	content := strings.TrimSpace(input.Content)
	if content == "" && input.Path == "" {
		return nil, ErrInvalidInput
	}

	docType := detectType(firstNonEmpty(input.Path, name))
	if input.Path != "" {
		raw, err := os.ReadFile(input.Path)
		if err != nil {
			return nil, err
		}
		content = strings.TrimSpace(extractText(docType, raw))
		if name == "" {
			name = filepath.Base(input.Path)
		}
	}
	if content == "" {
		return nil, ErrInvalidInput
	}
	if name == "" {
		name = "Untitled"
	}

	chunks := rag.ChunkText(content, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, ErrInvalidInput
	}

	docID := strings.TrimSpace(input.DocumentID)
	if docID == "" {
		docID = uuid.NewString()
	}

	doc := &model.Document{
		ID:        docID,
		FileName:  name,
		Type:      docType,
		Content:   content,
		Title:     strings.TrimSuffix(name, filepath.Ext(name)),
		Size:      int64(len(content)),
		WordCount: len(strings.Fields(content)),
		Language:  detectLanguage(content),
		Category:  normalizeCategory(input.Category),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	doc.SetChunks(chunks)
	doc.SetTags(input.Tags)

	if err := s.storeEmbeddings(ctx, doc, chunks); err != nil {
		return nil, err
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, err
	}

	return &IngestResult{Document: *doc, ChunkCount: len(chunks)}, nil
}

// storeEmbeddings clears the document's prior embeddings, then writes one
// embedding per chunk concurrently, keeping the first error.
func (s *IngestService) storeEmbeddings(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	if err := s.store.DeleteByDocument(ctx, doc.ID); err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := range chunks {
		wg.Add(1)
		go func(chunk model.Chunk) {
			defer wg.Done()
			emb := &model.VectorEmbedding{
				ID:         model.EmbeddingID(doc.ID, chunk.ID),
				DocumentID: doc.ID,
				ChunkID:    chunk.ID,
				Content:    chunk.Content,
				Section:    chunk.Metadata.Section,
				Importance: chunk.Metadata.Importance,
				DocTitle:   doc.Title,
				Category:   doc.Category,
				CreatedAt:  time.Now(),
			}
			emb.SetVector(rag.Embed(chunk.Content))
			emb.SetKeywords(chunk.Metadata.Keywords)
			if err := s.store.Put(ctx, emb); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(chunks[i])
	}
	wg.Wait()
	return firstErr
}

func (s *IngestService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.docRepo.List(ctx)
}

func (s *IngestService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// DeleteDocument removes the document and cascades to its embeddings.
func (s *IngestService) DeleteDocument(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.store.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	return s.docRepo.DeleteByID(ctx, id)
}

func detectType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return model.DocTypePDF
	case ".md", ".markdown":
		return model.DocTypeMarkdown
	default:
		return model.DocTypeText
	}
}

// extractText pulls plain text out of the raw payload. PDF extraction
// failures fall back to treating the bytes as text rather than failing the
// ingest.
func extractText(docType string, raw []byte) string {
	if docType == model.DocTypePDF {
		text, err := pdfextract.ExtractText(raw)
		if err != nil {
			log.Printf("pdf extraction failed, falling back to raw text: %v", err)
			return string(raw)
		}
		if strings.TrimSpace(text) != "" {
			return text
		}
	}
	return string(raw)
}

func normalizeCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case model.CategoryResume:
		return model.CategoryResume
	case model.CategoryExperience:
		return model.CategoryExperience
	case model.CategoryPortfolio:
		return model.CategoryPortfolio
	case model.CategoryPersonal:
		return model.CategoryPersonal
	default:
		return model.CategoryOther
	}
}

// detectLanguage is a crude English-vs-unknown check based on common-word
// frequency; good enough for a personal corpus.
func detectLanguage(text string) string {
	common := []string{" the ", " and ", " is ", " of ", " to ", " in "}
	lower := " " + strings.ToLower(text) + " "
	hits := 0
	for _, w := range common {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	if hits >= 2 {
		return "en"
	}
	return "unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
