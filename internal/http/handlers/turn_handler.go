// Turn HTTP handler.
//
// POST /chat/turn takes the full conversation from the client (the last
// element is the new user message) plus an optional chat id, and answers
// with the generated reply. Signed-in callers get the pair stored and, on
// their first turn, a freshly titled chat. Anonymous callers get a reply
// and nothing is stored.
//
// Idempotency:
// A signed-in caller that repeats a turn with the same Idempotency-Key (and
// the same chat id) within the TTL receives the stored response, marked
// with Idempotency-Replayed: true, and the model is not called again. The
// key is reserved before the model runs, so a retry that arrives while the
// first attempt is still running gets 409 instead of a second generation.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/bibion-backend/internal/domain"
	"github.com/tbourn/bibion-backend/internal/http/middleware"
	"github.com/tbourn/bibion-backend/internal/services"
)

// TurnMessage is one element of the submitted conversation.
type TurnMessage struct {
	// Role is "user" or "ai" ("assistant" and "model" are accepted as "ai").
	Role    string `json:"role"    example:"user"`
	Content string `json:"content" example:"What does Matthew 18 say about forgiveness?"`
}

// TurnRequest is the JSON payload of POST /chat/turn.
type TurnRequest struct {
	Messages []TurnMessage `json:"messages"`
	// ChatID continues an existing chat; omit it to start a new one.
	ChatID *string `json:"chatId,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// TurnResponse is the JSON result of a turn.
type TurnResponse struct {
	GeneratedText string `json:"generatedText" example:"Grace and peace to you."`
	// ChatID is null for anonymous callers.
	ChatID *string `json:"chatId" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Title is set only when this turn created the chat.
	Title string `json:"title" example:"Forgiveness In Matthew"`
}

// toHistory maps wire messages to domain turns, rejecting unknown roles.
func toHistory(in []TurnMessage) ([]domain.Turn, error) {
	out := make([]domain.Turn, 0, len(in))
	for i, m := range in {
		role, err := domain.ParseRole(m.Role)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: role must be user or ai", i)
		}
		out = append(out, domain.Turn{Role: role, Content: m.Content})
	}
	return out, nil
}

// PostTurn godoc
// @ID          postTurn
// @Summary     Take a conversational turn
// @Description Sends the conversation (last element is the new user message) and returns the generated reply.
// @Description Signed-in callers have the pair stored; a new chat is created and titled when chatId is omitted.
// @Description Anonymous callers receive chatId null and nothing is stored.
// @Tags        Turns
// @Accept      json
// @Produce     json
// @Security    SessionCookie
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Key for safe retries of signed-in turns"
// @Param       body             body    handlers.TurnRequest  true  "Conversation"
//
// @Success     200  {object}  handlers.TurnResponse
// @Header      200  {string}  Idempotency-Replayed "true when served from a stored result"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Same Idempotency-Key still in progress"
// @Failure     413  {object}  handlers.ErrorResponse  "Body too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation or storage failed"
// @Router      /chat/turn [post]
func (h *Handlers) PostTurn(c *gin.Context) {
	ctx := c.Request.Context()

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "messages must not be empty")
		return
	}
	history, err := toHistory(req.Messages)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	chatID := ""
	if req.ChatID != nil {
		chatID = strings.TrimSpace(*req.ChatID)
	}
	if chatID != "" {
		if _, err := uuid.Parse(chatID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chatId must be a UUID")
			return
		}
	}

	uid := middleware.UserID(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)
	replayable := uid != "" && idemKey != "" && h.replays != nil

	if replayable {
		held, reserved, err := h.replays.Reserve(ctx, ReplayRecord{UserID: uid, ChatID: chatID, Key: idemKey, TTL: h.idemTTL})
		switch {
		case err != nil:
			middleware.LoggerFrom(c).Warn().Err(err).Msg("could not reserve idempotency key")
			replayable = false
		case reserved:
		case held.Pending():
			fail(c, http.StatusConflict, ErrCodeConflict, "a turn with this Idempotency-Key is still in progress")
			return
		default:
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			c.Data(held.Status, "application/json; charset=utf-8", held.Response)
			return
		}
	}

	res, err := h.turnSvc.Take(ctx, uid, history, chatID)
	if err != nil {
		if replayable {
			h.release(c, uid, chatID, idemKey)
		}
		h.failTurn(c, err)
		return
	}

	resp := TurnResponse{GeneratedText: res.GeneratedText, ChatID: res.ChatID, Title: res.Title}
	if replayable {
		h.remember(c, uid, chatID, idemKey, res.AIMessageID, resp)
	}
	ok(c, http.StatusOK, resp)
}

// remember completes the reservation with resp. On failure the key is
// released, which only costs a future replay.
func (h *Handlers) remember(c *gin.Context, uid, chatID, key, msgID string, resp TurnResponse) {
	body, err := json.Marshal(resp)
	if err == nil {
		err = h.replays.Complete(c.Request.Context(), ReplayRecord{
			UserID:    uid,
			ChatID:    chatID,
			Key:       key,
			MessageID: msgID,
			Status:    http.StatusOK,
			Body:      body,
			TTL:       h.idemTTL,
		})
	}
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("could not store idempotent turn")
		h.release(c, uid, chatID, key)
	}
}

// release frees the key so a retry of a failed turn runs again.
func (h *Handlers) release(c *gin.Context, uid, chatID, key string) {
	// The request context may be the reason the turn failed.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.replays.Release(ctx, uid, chatID, key); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("could not release idempotency key")
	}
}

// failTurn maps TurnService errors to the envelope.
func (h *Handlers) failTurn(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyHistory),
		errors.Is(err, services.ErrLastNotUser),
		errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
	case errors.Is(err, services.ErrGeneration):
		middleware.LoggerFrom(c).Error().Err(err).Str("stage", "generate").Msg("turn failed")
		fail(c, http.StatusInternalServerError, ErrCodeTurnFailed, "could not generate a reply")
	case errors.Is(err, services.ErrPersistence):
		middleware.LoggerFrom(c).Error().Err(err).Str("stage", "persist").Msg("turn failed")
		fail(c, http.StatusInternalServerError, ErrCodeTurnFailed, "could not save the conversation")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
