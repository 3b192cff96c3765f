package records

import (
	"context"
	"errors"

	recordsdomain "care-companion-go/internal/domain/records"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListConversations(ctx context.Context, userID string) ([]recordsdomain.Conversation, error) {
	var conversations []recordsdomain.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at desc").
		Find(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *PostgresRepository) GetConversationByID(ctx context.Context, conversationID string) (*recordsdomain.Conversation, error) {
	var conversation recordsdomain.Conversation
	if err := r.db.WithContext(ctx).
		Where("id = ?", conversationID).
		First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recordsdomain.ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *PostgresRepository) CreateConversation(ctx context.Context, conversation *recordsdomain.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID string) ([]recordsdomain.Message, error) {
	var messages []recordsdomain.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("message_order asc").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresRepository) AppendMessage(ctx context.Context, message *recordsdomain.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conversation recordsdomain.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", message.ConversationID).
			First(&conversation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return recordsdomain.ErrConversationNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&recordsdomain.Message{}).
			Where("conversation_id = ?", message.ConversationID).
			Count(&count).Error; err != nil {
			return err
		}
		message.MessageOrder = int(count) + 1

		if err := tx.Create(message).Error; err != nil {
			return err
		}

		return tx.Model(&recordsdomain.Conversation{}).
			Where("id = ?", conversation.ID).
			Update("total_messages", gorm.Expr("total_messages + 1")).Error
	})
}

func (r *PostgresRepository) ListMemoirs(ctx context.Context, userID string) ([]recordsdomain.Memoir, error) {
	var memoirs []recordsdomain.Memoir
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("extracted_at desc").
		Find(&memoirs).Error; err != nil {
		return nil, err
	}
	return memoirs, nil
}

func (r *PostgresRepository) CreateMemoir(ctx context.Context, memoir *recordsdomain.Memoir) error {
	return r.db.WithContext(ctx).Create(memoir).Error
}
