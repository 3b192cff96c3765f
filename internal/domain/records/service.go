package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"care-companion-go/internal/cache"
	"care-companion-go/pkg/logger"
	"github.com/google/uuid"
)

// Cache is the response cache the read path goes through. It is best-effort:
// the service never fails because of it.
type Cache interface {
	Get(ctx context.Context, bucket cache.Bucket, scopeID string) ([]byte, bool)
	Put(ctx context.Context, bucket cache.Bucket, scopeID string, payload []byte)
	Invalidate(ctx context.Context, bucket cache.Bucket, scopeID string)
}

type Service struct {
	repo  Repository
	cache Cache
	log   logger.Logger
}

func NewService(repo Repository, cache Cache, log logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// ListConversations returns the user's conversations, served from the cache
// when a fresh entry exists.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	var cached []Conversation
	if s.fromCache(ctx, cache.BucketConversations, userID, &cached) {
		return cached, nil
	}

	items, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, cache.BucketConversations, userID, items)
	return items, nil
}

func (s *Service) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}

	conversation := Conversation{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    strings.TrimSpace(title),
		IsActive: true,
	}
	if err := s.repo.CreateConversation(ctx, &conversation); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.BucketConversations, userID)
	return &conversation, nil
}

func (s *Service) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var cached []Message
	if s.fromCache(ctx, cache.BucketMessages, conversationID, &cached) {
		return cached, nil
	}

	items, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, cache.BucketMessages, conversationID, items)
	return items, nil
}

type AppendMessageInput struct {
	ConversationID string
	Role           Role
	Content        string
	HasAudio       bool
}

func (s *Service) AppendMessage(ctx context.Context, input AppendMessageInput) (*Message, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRecord, input.Role)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidRecord)
	}

	conversation, err := s.repo.GetConversationByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	message := Message{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		Role:           input.Role,
		Content:        input.Content,
		HasAudio:       input.HasAudio,
	}
	if err := s.repo.AppendMessage(ctx, &message); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.BucketMessages, conversation.ID)
	s.cache.Invalidate(ctx, cache.BucketConversations, conversation.UserID)
	return &message, nil
}

func (s *Service) ListMemoirs(ctx context.Context, userID string) ([]Memoir, error) {
	var cached []Memoir
	if s.fromCache(ctx, cache.BucketMemoirs, userID, &cached) {
		return cached, nil
	}

	items, err := s.repo.ListMemoirs(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, cache.BucketMemoirs, userID, items)
	return items, nil
}

type CreateMemoirInput struct {
	UserID          string
	ConversationID  *string
	Title           string
	Content         string
	TimePeriod      string
	EmotionalTone   string
	ImportanceScore float64
}

func (s *Service) CreateMemoir(ctx context.Context, input CreateMemoirInput) (*Memoir, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidRecord)
	}

	memoir := Memoir{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		ConversationID:  input.ConversationID,
		Title:           strings.TrimSpace(input.Title),
		Content:         input.Content,
		TimePeriod:      input.TimePeriod,
		EmotionalTone:   input.EmotionalTone,
		ImportanceScore: input.ImportanceScore,
	}
	if err := s.repo.CreateMemoir(ctx, &memoir); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.BucketMemoirs, input.UserID)
	return &memoir, nil
}

// fromCache reports whether a decodable cached payload was found. An
// undecodable payload is purged and treated as a miss.
func (s *Service) fromCache(ctx context.Context, bucket cache.Bucket, scopeID string, dst any) bool {
	raw, ok := s.cache.Get(ctx, bucket, scopeID)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.InternalError("records: undecodable cache payload purged", err, "bucket", string(bucket), "scope", scopeID)
		s.cache.Invalidate(ctx, bucket, scopeID)
		return false
	}
	return true
}

func (s *Service) toCache(ctx context.Context, bucket cache.Bucket, scopeID string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.InternalError("records: cache encode failed", err, "bucket", string(bucket), "scope", scopeID)
		return
	}
	s.cache.Put(ctx, bucket, scopeID, raw)
}
