package records

import "time"

// Conversation is one elderly user's session with the voice assistant.
type Conversation struct {
	ID            string     `gorm:"type:uuid;primaryKey"`
	UserID        string     `gorm:"index;not null"`
	Title         string
	StartedAt     time.Time  `gorm:"autoCreateTime"`
	EndedAt       *time.Time
	IsActive      bool       `gorm:"not null;default:true"`
	TotalMessages int        `gorm:"not null;default:0"`
	Summary       string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// Message is a single turn within a conversation. MessageOrder is assigned on
// append and is 1-based within the conversation.
type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	ConversationID string    `gorm:"type:uuid;index;not null"`
	Role           Role      `gorm:"not null"`
	Content        string    `gorm:"not null"`
	Timestamp      time.Time `gorm:"autoCreateTime"`
	MessageOrder   int       `gorm:"not null"`
	HasAudio       bool      `gorm:"not null;default:false"`
}

func (Message) TableName() string {
	return "conversation_messages"
}

// Memoir is a life story extracted from conversations with the elderly user.
type Memoir struct {
	ID              string     `gorm:"type:uuid;primaryKey"`
	UserID          string     `gorm:"index;not null"`
	ConversationID  *string    `gorm:"type:uuid"`
	Title           string     `gorm:"not null"`
	Content         string     `gorm:"not null"`
	DateOfMemory    *time.Time
	ExtractedAt     time.Time  `gorm:"autoCreateTime"`
	TimePeriod      string
	EmotionalTone   string
	ImportanceScore float64    `gorm:"not null;default:0"`
}

func (Memoir) TableName() string {
	return "life_memoirs"
}
