package service

import (
	"context"
	"strings"

	"mealbridge/internal/events"
	"mealbridge/internal/middleware"
	"mealbridge/internal/models"
	"mealbridge/internal/repository"
)

// ChatService coordinates per-post conversations between a post's owner and
// its claimer. Conversations are created lazily: on the claim event, on
// first history access, or on first send, never before a claimer exists.
type ChatService struct {
	chatRepo  repository.ChatRepository
	postRepo  repository.PostRepository
	publisher events.Publisher
}

type SendMessageInput struct {
	// ConversationID targets an existing conversation directly; when zero,
	// PostID+PostKind resolve (or create) it.
	ConversationID uint
	PostID         uint
	PostKind       models.PostKind
	SenderID       uint
	Text           string
}

func NewChatService(
	chatRepo repository.ChatRepository,
	postRepo repository.PostRepository,
	publisher events.Publisher,
) *ChatService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ChatService{
		chatRepo:  chatRepo,
		postRepo:  postRepo,
		publisher: publisher,
	}
}

// HandlePostClaimed bootstraps the conversation as soon as a claim commits,
// so both parties see the channel without anyone sending first. Failures are
// logged and swallowed: the claim has already happened and the conversation
// will be lazily recreated on first access anyway.
func (s *ChatService) HandlePostClaimed(ctx context.Context, ev events.PostClaimed) {
	_, err := s.chatRepo.GetOrCreateConversation(ctx, ev.PostID, models.PostKind(ev.PostKind), []uint{ev.OwnerID, ev.ClaimerID})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to bootstrap conversation on claim",
			"post_id", ev.PostID,
			"error", err.Error(),
		)
	}
}

// GetConversationForPost returns the conversation and its message history
// for a post, creating the conversation if the post has a claimer. When no
// claimer exists yet there is nothing to create: callers get a nil
// conversation and an empty history.
//
// The kind argument is only sanity-checked; the conversation key always
// uses the post's own kind, so a request under the wrong kind cannot split
// the history into a second conversation.
func (s *ChatService) GetConversationForPost(ctx context.Context, postID uint, postKind models.PostKind, requesterID uint) (*models.Conversation, []*models.Message, error) {
	if postKind != "" && !models.ValidPostKind(postKind) {
		return nil, nil, models.NewValidationError("Invalid post kind")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if requesterID != post.OwnerID && (post.ClaimedByID == nil || *post.ClaimedByID != requesterID) {
		return nil, nil, models.NewForbiddenError("You are not a participant in this conversation")
	}

	if post.ClaimedByID == nil {
		return nil, nil, nil
	}

	conv, err := s.chatRepo.GetOrCreateConversation(ctx, postID, post.Kind, []uint{post.OwnerID, *post.ClaimedByID})
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.chatRepo.GetMessages(ctx, conv.ID, 100, 0)
	if err != nil {
		return nil, nil, err
	}
	return conv, messages, nil
}

// SendMessage persists and fans out one chat line. A send on a post without
// a claimer is silently dropped, mirroring how the pickup flow works: there
// is no counterparty to talk to yet.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	const maxMessageLen = 2000
	if len(text) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 2000 characters)")
	}

	var conv *models.Conversation
	var err error

	if in.ConversationID != 0 {
		conv, err = s.chatRepo.GetConversation(ctx, in.ConversationID)
		if err != nil {
			return nil, err
		}
		ok, err := s.chatRepo.IsParticipant(ctx, conv.ID, in.SenderID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewForbiddenError("You are not a participant in this conversation")
		}
	} else {
		if in.PostKind != "" && !models.ValidPostKind(in.PostKind) {
			return nil, models.NewValidationError("Invalid post kind")
		}
		post, err := s.postRepo.GetByID(ctx, in.PostID)
		if err != nil {
			return nil, err
		}
		if in.SenderID != post.OwnerID && (post.ClaimedByID == nil || *post.ClaimedByID != in.SenderID) {
			return nil, models.NewForbiddenError("You are not a participant in this conversation")
		}
		if post.ClaimedByID == nil {
			// No claimer, no conversation. Dropped, not queued.
			return nil, nil
		}
		// The conversation is keyed by the post's own kind, not the
		// client-supplied one.
		conv, err = s.chatRepo.GetOrCreateConversation(ctx, in.PostID, post.Kind, []uint{post.OwnerID, *post.ClaimedByID})
		if err != nil {
			return nil, err
		}
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		Text:           text,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.publisher.PublishChat(ctx, conv.ID, events.TypeNewMessage, msg)
	return msg, nil
}

// ListConversations returns the requester's inbox, most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.chatRepo.GetUserConversations(ctx, userID)
}
