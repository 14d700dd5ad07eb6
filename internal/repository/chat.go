package repository

import (
	"context"
	"errors"

	"mealbridge/internal/cache"
	"mealbridge/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	GetOrCreateConversation(ctx context.Context, postID uint, postKind models.PostKind, participantIDs []uint) (*models.Conversation, error)
	GetByPost(ctx context.Context, postID uint, postKind models.PostKind) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error)
	IsParticipant(ctx context.Context, convID, userID uint) (bool, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error)
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// GetOrCreateConversation returns the single conversation for a post,
// creating it (and its participant rows) on first use. The unique index on
// (post_id, post_kind) plus ON CONFLICT DO NOTHING keeps concurrent first
// messages from racing into duplicates.
func (r *chatRepository) GetOrCreateConversation(ctx context.Context, postID uint, postKind models.PostKind, participantIDs []uint) (*models.Conversation, error) {
	conv := models.Conversation{PostID: postID, PostKind: postKind}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&conv).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// On conflict the insert reports no ID, so re-read either way.
	existing, err := r.GetByPost(ctx, postID, postKind)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, models.NewInternalError(errors.New("conversation insert raced and lookup found nothing"))
	}

	for _, userID := range participantIDs {
		participant := models.ConversationParticipant{
			ConversationID: existing.ID,
			UserID:         userID,
		}
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&participant).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	return existing, nil
}

// GetByPost resolves the conversation for a post. The mapping is immutable
// once the row exists, so positive lookups are cached; misses are not, since
// the conversation can be created at any moment.
func (r *chatRepository) GetByPost(ctx context.Context, postID uint, postKind models.PostKind) (*models.Conversation, error) {
	key := cache.ConversationKey(string(postKind), postID)
	var cached models.Conversation
	if found, err := cache.GetJSON(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND post_kind = ?", postID, postKind).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	_ = cache.SetJSON(ctx, key, &conv, cache.ConvTTL)
	return &conv, nil
}

func (r *chatRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Limit(50)
		}).
		Preload("Messages.Sender").
		First(&conv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &conv, nil
}

func (r *chatRepository) GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp ON conversations.id = cp.conversation_id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Preload("Post").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(1)
		}).
		Preload("Messages.Sender").
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conversations, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, convID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	// Bump the conversation so it sorts to the top of the inbox.
	r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", msg.ConversationID).
		Update("updated_at", gorm.Expr("NOW()"))
	return nil
}

// GetMessages returns messages oldest-first so clients can append in order.
func (r *chatRepository) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Preload("Sender").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
