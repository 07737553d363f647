// Chat HTTP handlers.
//
// This file exposes the owner-scoped chat endpoints:
//   - GET    /chats        (list the caller's chats, newest first, weak ETag)
//   - GET    /chats/{id}   (messages of one chat, oldest first, weak ETag)
//   - POST   /chats        (create an empty chat with the placeholder title)
//
// All three sit behind middleware.RequireUser, so the caller is known.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/bibion-backend/internal/domain"
	"github.com/tbourn/bibion-backend/internal/http/middleware"
	"github.com/tbourn/bibion-backend/internal/services"
	"github.com/tbourn/bibion-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ChatService defines the chat reads and writes consumed by HTTP handlers.
type ChatService interface {
	Create(ctx context.Context, userID string) (*domain.Chat, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Chat, error)
	Count(ctx context.Context, userID string) (int64, error)
	Messages(ctx context.Context, userID, chatID string) ([]domain.Message, error)
	ChatsVersion(ctx context.Context, userID string) (int64, *time.Time, error)
	MessagesVersion(ctx context.Context, userID, chatID string) (int64, *time.Time, error)
}

// TurnService runs a single conversational turn.
type TurnService interface {
	Take(ctx context.Context, userID string, history []domain.Turn, chatID string) (*services.TurnResult, error)
}

// ReplayStore persists turns for Idempotency-Key replays.
//
// Reserve claims the key before the turn runs. When the key is already held
// it returns the holder's record and false; a pending holder means the same
// turn is still in flight. Complete stores the outcome of a reserved turn and
// Release gives the key back after a failed one.
type ReplayStore interface {
	Reserve(ctx context.Context, rec ReplayRecord) (*domain.Idempotency, bool, error)
	Complete(ctx context.Context, rec ReplayRecord) error
	Release(ctx context.Context, userID, chatID, key string) error
}

// ReplayRecord is a turn response to remember under a key.
type ReplayRecord struct {
	UserID    string
	ChatID    string
	Key       string
	MessageID string
	Status    int
	Body      []byte
	TTL       time.Duration
}

//
// Handler wiring
//

// Handlers groups the chat and turn endpoints.
type Handlers struct {
	chatSvc ChatService
	turnSvc TurnService
	replays ReplayStore
	idemTTL time.Duration
}

// New constructs Handlers. replays may be nil to disable turn replays.
func New(chatSvc ChatService, turnSvc TurnService, replays ReplayStore, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{chatSvc: chatSvc, turnSvc: turnSvc, replays: replays, idemTTL: idemTTL}
}

//
// DTOs
//

// ChatSummary is one entry of the chat list.
type ChatSummary struct {
	ID    string `json:"id"    example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Title string `json:"title" example:"Forgiveness In Matthew"`
}

// ListChatsResponse wraps the caller's chats.
type ListChatsResponse struct {
	Chats []ChatSummary `json:"chats"`
}

// MessageView is one stored message as seen by the client.
type MessageView struct {
	Role    string `json:"role"    example:"user" enums:"user,ai"`
	Content string `json:"content" example:"What does Matthew 18 say about forgiveness?"`
}

// ListMessagesResponse wraps the messages of one chat.
type ListMessagesResponse struct {
	Messages []MessageView `json:"messages"`
}

// CreateChatResponse returns the id of a newly created chat.
type CreateChatResponse struct {
	ChatID string `json:"chatId" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

//
// Helpers
//

const maxChatListLimit = 100

// headerTotalCount carries the full chat count when ?limit= truncates the list.
const headerTotalCount = "X-Total-Count"

// parseLimit reads ?limit=. Absent means no limit; values above
// maxChatListLimit are clamped.
func parseLimit(c *gin.Context) (int, bool) {
	n, err := utils.ParseLimit(c.Query("limit"), maxChatListLimit)
	return n, err == nil
}

func weakETag(kind string, count int64, newest *time.Time, extra int) string {
	var ts int64
	if newest != nil {
		ts = newest.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%d:%d:%d"`, kind, count, ts, extra)
}

//
// Handlers
//

// ListChats godoc
// @ID          listChats
// @Summary     List chats
// @Description Returns the signed-in user's chats, newest first. Supports a weak ETag via If-None-Match.
// @Tags        Chats
// @Produce     json
// @Security    SessionCookie
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       limit          query   int     false "Maximum chats to return"  minimum(1) maximum(100)
//
// @Success     200  {object} handlers.ListChatsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Header      200  {int}    X-Total-Count "Total chats owned by the caller, sent when limit is set"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Not signed in"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	limit, valid := parseLimit(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer")
		return
	}

	if count, newest, err := h.chatSvc.ChatsVersion(ctx, uid); err == nil {
		if notModified(c, weakETag("chats", count, newest, limit)) {
			return
		}
	}

	items, err := h.chatSvc.List(ctx, uid, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list chats")
		return
	}
	if limit > 0 {
		total, err := h.chatSvc.Count(ctx, uid)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not count chats")
			return
		}
		c.Header(headerTotalCount, strconv.FormatInt(total, 10))
	}

	out := make([]ChatSummary, 0, len(items))
	for _, ch := range items {
		out = append(out, ChatSummary{ID: ch.ID, Title: ch.Title})
	}
	ok(c, http.StatusOK, ListChatsResponse{Chats: out})
}

// GetChat godoc
// @ID          getChat
// @Summary     List messages in a chat
// @Description Returns the chat's messages oldest first. A chat the caller does not own reads as empty.
// @Tags        Chats
// @Produce     json
// @Security    SessionCookie
// @Security    BearerAuth
//
// @Param       id             path    string  true  "Chat ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Not signed in"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{id} [get]
func (h *Handlers) GetChat(c *gin.Context) {
	ctx := c.Request.Context()
	chatID := c.Param("id")
	// Ids are UUIDs; anything else cannot name a chat and reads as empty.
	if _, err := uuid.Parse(chatID); err != nil {
		ok(c, http.StatusOK, ListMessagesResponse{Messages: []MessageView{}})
		return
	}
	uid := middleware.UserID(c)

	if count, newest, err := h.chatSvc.MessagesVersion(ctx, uid, chatID); err == nil {
		if notModified(c, weakETag("messages:"+chatID, count, newest, 0)) {
			return
		}
	}

	msgs, err := h.chatSvc.Messages(ctx, uid, chatID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load messages")
		return
	}
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageView{Role: m.Role.Wire(), Content: m.Content})
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: out})
}

// CreateChat godoc
// @ID          createChat
// @Summary     Create an empty chat
// @Description Creates a chat owned by the signed-in user with the placeholder title.
// @Tags        Chats
// @Produce     json
// @Security    SessionCookie
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.CreateChatResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Not signed in"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats [post]
func (h *Handlers) CreateChat(c *gin.Context) {
	ch, err := h.chatSvc.Create(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not create chat")
		return
	}
	ok(c, http.StatusOK, CreateChatResponse{ChatID: ch.ID})
}
