package records

import "context"

type Repository interface {
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	GetConversationByID(ctx context.Context, conversationID string) (*Conversation, error)
	CreateConversation(ctx context.Context, conversation *Conversation) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	// AppendMessage assigns the next message order within the conversation
	// and bumps the conversation's message counter in the same transaction.
	AppendMessage(ctx context.Context, message *Message) error
	ListMemoirs(ctx context.Context, userID string) ([]Memoir, error)
	CreateMemoir(ctx context.Context, memoir *Memoir) error
}
