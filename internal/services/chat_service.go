// Package services – ChatService
//
// ChatService serves owner-scoped reads over chats and their messages and
// creates empty chats on request. Turns themselves are handled by
// TurnService.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/bibion-backend/internal/domain"
)

// ChatRepo defines the repository contract required by ChatService.
type ChatRepo interface {
	// CreateChat inserts a new chat row for the given user.
	CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error)

	// ListChats returns all chats belonging to the user, newest first.
	ListChats(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error)

	// ListChatsPage returns a window of the user's chats, newest first.
	ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error)

	// CountChats returns how many chats the user owns.
	CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListMessages returns a chat's messages if the user owns it, else empty.
	ListMessages(ctx context.Context, db *gorm.DB, chatID, userID string) ([]domain.Message, error)

	// ChatsStats and MessagesStats feed weak ETags.
	ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)
	MessagesStats(ctx context.Context, db *gorm.DB, chatID, userID string) (int64, *time.Time, error)
}

// ChatService provides chat-level operations for a signed-in user.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the chat repository used by this service.
	Repo ChatRepo
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{DB: db, Repo: r}
}

// Create inserts an empty chat owned by userID with the placeholder title.
func (s *ChatService) Create(ctx context.Context, userID string) (*domain.Chat, error) {
	return s.Repo.CreateChat(ctx, s.DB, userID, DefaultTitle)
}

// List returns the user's chats, newest first. A positive limit caps the
// result size.
func (s *ChatService) List(ctx context.Context, userID string, limit int) ([]domain.Chat, error) {
	var (
		items []domain.Chat
		err   error
	)
	if limit > 0 {
		items, err = s.Repo.ListChatsPage(ctx, s.DB, userID, 0, limit)
	} else {
		items, err = s.Repo.ListChats(ctx, s.DB, userID)
	}
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Chat{}
	}
	return items, nil
}

// Count returns the total number of chats owned by userID.
func (s *ChatService) Count(ctx context.Context, userID string) (int64, error) {
	return s.Repo.CountChats(ctx, s.DB, userID)
}

// Messages returns the messages of chatID in conversation order. A chat
// the user does not own reads as empty.
func (s *ChatService) Messages(ctx context.Context, userID, chatID string) ([]domain.Message, error) {
	msgs, err := s.Repo.ListMessages(ctx, s.DB, chatID, userID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// ChatsVersion reports the count and newest timestamp of the user's chats.
func (s *ChatService) ChatsVersion(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.ChatsStats(ctx, s.DB, userID)
}

// MessagesVersion reports the count and newest timestamp of the chat's
// messages visible to userID.
func (s *ChatService) MessagesVersion(ctx context.Context, userID, chatID string) (int64, *time.Time, error) {
	return s.Repo.MessagesStats(ctx, s.DB, chatID, userID)
}
