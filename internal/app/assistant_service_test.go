package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-assistant/internal/ai"
	"portfolio-assistant/internal/model"
	"portfolio-assistant/internal/rag"
)

type fakeConvStore struct {
	conversations map[string]model.Conversation
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{conversations: make(map[string]model.Conversation)}
}

func (s *fakeConvStore) Create(_ context.Context, conv *model.Conversation) error {
	s.conversations[conv.ID] = *conv
	return nil
}

func (s *fakeConvStore) ListByVisitorID(_ context.Context, visitorID string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range s.conversations {
		if c.VisitorID == visitorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeConvStore) GetByIDAndVisitorID(_ context.Context, id, visitorID string) (*model.Conversation, error) {
	c, ok := s.conversations[id]
	if !ok || c.VisitorID != visitorID {
		return nil, nil
	}
	return &c, nil
}

func (s *fakeConvStore) DeleteByIDAndVisitorID(_ context.Context, id, visitorID string) error {
	if c, ok := s.conversations[id]; ok && c.VisitorID == visitorID {
		delete(s.conversations, id)
	}
	return nil
}

type fakeMessageStore struct {
	messages []model.Message
}

func (s *fakeMessageStore) Create(_ context.Context, msg *model.Message) error {
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *fakeMessageStore) ListByConversationID(_ context.Context, conversationID string, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeMessageStore) ListRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	return s.ListByConversationID(ctx, conversationID, limit)
}

func (s *fakeMessageStore) DeleteByConversationID(_ context.Context, conversationID string) error {
	var kept []model.Message
	for _, m := range s.messages {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

type fakePublisher struct {
	published []model.Message
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, msg model.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

// stubLLM returns a canned completion and records the system prompt of the
// last request.
func stubLLM(t *testing.T, reply string) (*httptest.Server, *string) {
	t.Helper()
	var lastSystemPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Messages []ai.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		if len(req.Messages) > 0 && req.Messages[0].Role == "system" {
			lastSystemPrompt = req.Messages[0].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &lastSystemPrompt
}

func newTestAssistant(t *testing.T, llmURL string, embStore rag.Store) (*AssistantService, *fakeConvStore, *fakePublisher) {
	t.Helper()
	convStore := newFakeConvStore()
	publisher := &fakePublisher{}
	svc := NewAssistantService(
		convStore,
		&fakeMessageStore{},
		publisher,
		nil, // history cache optional
		rag.NewEngine(embStore),
		ai.NewModelSelector("primary-model", "fast-model"),
		ai.NewRateLimiter(600, 100),
		ai.ChatConfig{BaseURL: llmURL, APIKey: "test-key"},
		0.3,
		20,
	)
	return svc, convStore, publisher
}

func seedConversation(t *testing.T, svc *AssistantService) *model.Conversation {
	t.Helper()
	conv, err := svc.CreateConversation(context.Background(), CreateConversationInput{
		VisitorID: "visitor-1",
		Title:     "hello",
	})
	require.NoError(t, err)
	return conv
}

func TestSendMessage_AugmentsPromptWhenConfident(t *testing.T) {
	srv, systemPrompt := stubLLM(t, "Gaurav has five years of React experience.")

	embStore := newFakeEmbeddingStore()
	chunks := rag.ChunkText("Gaurav has 5 years of React and TypeScript experience building full-stack projects.", 500, 50)
	require.Len(t, chunks, 1)
	emb := &model.VectorEmbedding{
		ID:         model.EmbeddingID("doc1", chunks[0].ID),
		DocumentID: "doc1",
		ChunkID:    chunks[0].ID,
		Content:    chunks[0].Content,
		Section:    chunks[0].Metadata.Section,
		Importance: chunks[0].Metadata.Importance,
		Category:   model.CategoryExperience,
	}
	emb.SetVector(rag.Embed(chunks[0].Content))
	emb.SetKeywords(chunks[0].Metadata.Keywords)
	require.NoError(t, embStore.Put(context.Background(), emb))

	svc, _, publisher := newTestAssistant(t, srv.URL, embStore)
	conv := seedConversation(t, svc)

	result, err := svc.SendMessage(context.Background(), SendMessageInput{
		VisitorID:      "visitor-1",
		ConversationID: conv.ID,
		Content:        "What is Gaurav's React experience?",
	})
	require.NoError(t, err)

	require.Len(t, result.Messages, 2)
	assert.Equal(t, "user", result.Messages[0].Role)
	assert.Equal(t, "assistant", result.Messages[1].Role)
	assert.Greater(t, result.Confidence, 0.3)
	assert.Contains(t, *systemPrompt, "Contextual information")
	assert.Contains(t, *systemPrompt, "React and TypeScript")
	assert.Len(t, publisher.published, 2, "both turns enqueued for persistence")
}

func TestSendMessage_FallsBackToBasePromptOnEmptyCorpus(t *testing.T) {
	srv, systemPrompt := stubLLM(t, "I don't have details on that yet.")

	svc, _, _ := newTestAssistant(t, srv.URL, newFakeEmbeddingStore())
	conv := seedConversation(t, svc)

	result, err := svc.SendMessage(context.Background(), SendMessageInput{
		VisitorID:      "visitor-1",
		ConversationID: conv.ID,
		Content:        "What frameworks does Gaurav use?",
	})
	require.NoError(t, err)
	assert.Zero(t, result.Confidence)
	assert.NotContains(t, *systemPrompt, "Contextual information")
}

func TestSendMessage_StoreDownStillAnswers(t *testing.T) {
	srv, systemPrompt := stubLLM(t, "Happy to help anyway.")

	embStore := newFakeEmbeddingStore()
	embStore.getAllErr = errStoreDown

	svc, _, _ := newTestAssistant(t, srv.URL, embStore)
	conv := seedConversation(t, svc)

	result, err := svc.SendMessage(context.Background(), SendMessageInput{
		VisitorID:      "visitor-1",
		ConversationID: conv.ID,
		Content:        "Tell me about the portfolio",
	})
	require.NoError(t, err, "retrieval failure must not block the chat flow")
	assert.Zero(t, result.Confidence)
	assert.NotContains(t, *systemPrompt, "Contextual information")
}

func TestSendMessage_Validation(t *testing.T) {
	srv, _ := stubLLM(t, "ok")
	svc, _, _ := newTestAssistant(t, srv.URL, newFakeEmbeddingStore())
	conv := seedConversation(t, svc)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SendMessage(context.Background(), SendMessageInput{
		VisitorID:      "visitor-1",
		ConversationID: conv.ID,
		Content:        "   ",
	})
	assert.ErrorIs(t, err, ErrMessageEmpty)

	_, err = svc.SendMessage(context.Background(), SendMessageInput{
		VisitorID:      "visitor-1",
		ConversationID: "missing",
		Content:        "hi",
	})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendMessage_RateLimited(t *testing.T) {
	srv, _ := stubLLM(t, "ok")
	convStore := newFakeConvStore()
	svc := NewAssistantService(
		convStore,
		&fakeMessageStore{},
		&fakePublisher{},
		nil,
		rag.NewEngine(newFakeEmbeddingStore()),
		ai.NewModelSelector("primary-model", "fast-model"),
		ai.NewRateLimiter(1, 1),
		ai.ChatConfig{BaseURL: srv.URL, APIKey: "test-key"},
		0.3,
		20,
	)
	conv := seedConversation(t, svc)

	input := SendMessageInput{
		VisitorID:      "visitor-1",
		ConversationID: conv.ID,
		Content:        "hello there",
	}
	_, err := svc.SendMessage(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), input)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestDeleteConversation(t *testing.T) {
	srv, _ := stubLLM(t, "ok")
	svc, convStore, _ := newTestAssistant(t, srv.URL, newFakeEmbeddingStore())
	conv := seedConversation(t, svc)

	require.NoError(t, svc.DeleteConversation(context.Background(), "visitor-1", conv.ID))
	assert.Empty(t, convStore.conversations)

	err := svc.DeleteConversation(context.Background(), "visitor-1", conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
