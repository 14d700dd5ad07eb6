package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is the chat channel scoped to exactly one post. At most one
// conversation exists per (post_id, post_kind); its participants are the
// post's owner and claimer.
type Conversation struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	PostID   uint     `gorm:"not null;uniqueIndex:idx_conversations_post,priority:1" json:"post_id"`
	PostKind PostKind `gorm:"type:varchar(20);not null;default:'food_post';uniqueIndex:idx_conversations_post,priority:2" json:"post_kind"`
	Post     *Post    `gorm:"foreignKey:PostID" json:"post,omitempty"`

	Participants []User    `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	Messages     []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Message is one chat line. Immutable once created.
type Message struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ConversationID uint          `gorm:"not null;index" json:"conversation_id"`
	Conversation   *Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
	SenderID       uint          `gorm:"not null;index" json:"sender_id"`
	Sender         *User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Text           string        `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ConversationParticipant is the join table backing the many2many relation.
type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
