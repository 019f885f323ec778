package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-assistant/internal/ai"
	"portfolio-assistant/internal/model"
	"portfolio-assistant/internal/rag"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrRateLimited          = errors.New("too many requests, slow down")
	ErrMessageEnqueue       = errors.New("message enqueue failed")
)

const basePrompt = "You are the assistant on Gaurav's portfolio site. Answer visitor " +
	"questions about Gaurav's background, skills and projects. Be friendly and " +
	"concise. If you do not know something, say so instead of guessing."

// AsyncMessagePublisher hands messages to the persist queue.
type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

// ConversationStore is the persistence seam for conversations.
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	ListByVisitorID(ctx context.Context, visitorID string) ([]model.Conversation, error)
	GetByIDAndVisitorID(ctx context.Context, id, visitorID string) (*model.Conversation, error)
	DeleteByIDAndVisitorID(ctx context.Context, id, visitorID string) error
}

// MessageStore is the persistence seam for chat messages.
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByConversationID(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	ListRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	DeleteByConversationID(ctx context.Context, conversationID string) error
}

// HistoryCache is the conversation-history cache seam (redis in production).
type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, conversationID string) error
	MarkDirty(ctx context.Context, conversationID string) error
	IsDirty(ctx context.Context, conversationID string) (bool, error)
}

// AssistantService runs the visitor chat flow with retrieval-augmented
// prompts. Retrieval failure or low confidence never blocks a chat request.
type AssistantService struct {
	convRepo      ConversationStore
	messageRepo   MessageStore
	publisher     AsyncMessagePublisher
	historyCache  HistoryCache
	engine        *rag.Engine
	llmClient     *ai.OpenAICompatibleClient
	selector      *ai.ModelSelector
	limiter       *ai.RateLimiter
	llmConfig     ai.ChatConfig
	minConfidence float64
	maxContext    int
}

func NewAssistantService(
	convRepo ConversationStore,
	messageRepo MessageStore,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	engine *rag.Engine,
	selector *ai.ModelSelector,
	limiter *ai.RateLimiter,
	llmConfig ai.ChatConfig,
	minConfidence float64,
	maxContext int,
) *AssistantService {
	if maxContext <= 0 {
		maxContext = 20
	}
	return &AssistantService{
		convRepo:      convRepo,
		messageRepo:   messageRepo,
		publisher:     publisher,
		historyCache:  historyCache,
		engine:        engine,
		llmClient:     ai.NewOpenAICompatibleClient(),
		selector:      selector,
		limiter:       limiter,
		llmConfig:     llmConfig,
		minConfidence: minConfidence,
		maxContext:    maxContext,
	}
}

type CreateConversationInput struct {
	VisitorID string
	Title     string
}

func (s *AssistantService) CreateConversation(ctx context.Context, input CreateConversationInput) (*model.Conversation, error) {
	visitorID := strings.TrimSpace(input.VisitorID)
	if visitorID == "" {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Conversation"
	}
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *AssistantService) ListConversations(ctx context.Context, visitorID string) ([]model.Conversation, error) {
	if strings.TrimSpace(visitorID) == "" {
		return nil, ErrInvalidInput
	}
	return s.convRepo.ListByVisitorID(ctx, visitorID)
}

func (s *AssistantService) DeleteConversation(ctx context.Context, visitorID, conversationID string) error {
	if visitorID == "" || conversationID == "" {
		return ErrInvalidInput
	}
	conv, err := s.convRepo.GetByIDAndVisitorID(ctx, conversationID, visitorID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if err := s.messageRepo.DeleteByConversationID(ctx, conversationID); err != nil {
		return err
	}
	if err := s.convRepo.DeleteByIDAndVisitorID(ctx, conversationID, visitorID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, conversationID)
	}
	return nil
}

type SendMessageInput struct {
	VisitorID      string
	ConversationID string
	Content        string
}

type SendMessageResult struct {
	Messages   []model.Message        `json:"messages"`
	Retrieval  model.RetrievedContext `json:"retrieval"`
	Model      string                 `json:"model"`
	Confidence float64                `json:"confidence"`
}

// SendMessage answers a visitor turn: retrieve context, build the prompt,
// call the LLM and enqueue both turns for persistence.
func (s *AssistantService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	prepared, err := s.prepareTurn(ctx, input)
	if err != nil {
		return nil, err
	}

	answer, err := s.llmClient.Complete(ctx, prepared.cfg, prepared.prompt)
	if err != nil {
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "The model returned an empty response."
	}

	assistantMsg := s.newMessage(input, "assistant", answer, prepared.cfg.Model)
	if err := s.publisher.Publish(ctx, assistantMsg); err != nil {
		return nil, ErrMessageEnqueue
	}

	return &SendMessageResult{
		Messages:   []model.Message{prepared.userMsg, assistantMsg},
		Retrieval:  prepared.retrieval,
		Model:      prepared.cfg.Model,
		Confidence: prepared.retrieval.Confidence,
	}, nil
}

// StreamMessage is the SSE variant of SendMessage.
func (s *AssistantService) StreamMessage(
	ctx context.Context,
	input SendMessageInput,
	onChunk func(string) error,
) (string, error) {
	prepared, err := s.prepareTurn(ctx, input)
	if err != nil {
		return "", err
	}

	full, err := s.llmClient.StreamComplete(ctx, prepared.cfg, prepared.prompt, onChunk)
	if err != nil {
		return "", err
	}
	full = strings.TrimSpace(full)
	if full == "" {
		full = "The model returned an empty response."
	}

	assistantMsg := s.newMessage(input, "assistant", full, prepared.cfg.Model)
	if err := s.publisher.Publish(ctx, assistantMsg); err != nil {
		return "", ErrMessageEnqueue
	}
	return full, nil
}

type preparedTurn struct {
	cfg       ai.ChatConfig
	prompt    []ai.ChatMessage
	userMsg   model.Message
	retrieval model.RetrievedContext
}

func (s *AssistantService) prepareTurn(ctx context.Context, input SendMessageInput) (*preparedTurn, error) {
	if input.VisitorID == "" || input.ConversationID == "" {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}
	if s.limiter != nil && !s.limiter.Allow(input.VisitorID) {
		return nil, ErrRateLimited
	}

	conv, err := s.convRepo.GetByIDAndVisitorID(ctx, input.ConversationID, input.VisitorID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	// RelevantContext never fails; an unavailable store yields confidence 0
	// and the base prompt is used unchanged.
	retrieval := s.engine.RelevantContext(ctx, content)

	prompt, err := s.buildPrompt(ctx, input.ConversationID, content, retrieval)
	if err != nil {
		return nil, err
	}

	cfg := s.llmConfig
	cfg.Model = s.selector.Select(content)

	userMsg := s.newMessage(input, "user", content, "")
	if s.publisher == nil {
		return nil, ErrMessageEnqueue
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, input.ConversationID)
		_ = s.historyCache.DeleteHistory(ctx, input.ConversationID)
	}
	if err := s.publisher.Publish(ctx, userMsg); err != nil {
		return nil, ErrMessageEnqueue
	}

	return &preparedTurn{
		cfg:       cfg,
		prompt:    prompt,
		userMsg:   userMsg,
		retrieval: retrieval,
	}, nil
}

// buildPrompt assembles system prompt + recent history + the current turn.
// Retrieved context is injected only when confidence clears the threshold.
func (s *AssistantService) buildPrompt(
	ctx context.Context,
	conversationID, content string,
	retrieval model.RetrievedContext,
) ([]ai.ChatMessage, error) {
	system := basePrompt
	if retrieval.Context != "" && retrieval.Confidence >= s.minConfidence {
		system += "\n\nContextual information about Gaurav:\n" + retrieval.Context +
			"\n\nUse this context when it is relevant to the question."
	}

	recent, err := s.messageRepo.ListRecentByConversationID(ctx, conversationID, s.maxContext)
	if err != nil {
		return nil, err
	}

	messages := make([]ai.ChatMessage, 0, len(recent)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: system})
	for _, item := range recent {
		role := item.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: item.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: content})
	return messages, nil
}

func (s *AssistantService) GetHistory(ctx context.Context, visitorID, conversationID string, limit int) ([]model.Message, error) {
	if visitorID == "" || conversationID == "" {
		return nil, ErrInvalidInput
	}
	conv, err := s.convRepo.GetByIDAndVisitorID(ctx, conversationID, visitorID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListByConversationID(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, conversationID, messages)
		}
	}
	return messages, nil
}

func (s *AssistantService) newMessage(input SendMessageInput, role, content, modelName string) model.Message {
	return model.Message{
		ID:             uuid.NewString(),
		ConversationID: input.ConversationID,
		VisitorID:      input.VisitorID,
		Role:           role,
		Content:        strings.TrimSpace(content),
		Model:          modelName,
		CreatedAt:      time.Now(),
	}
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
