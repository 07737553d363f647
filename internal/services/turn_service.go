// Package services – TurnService
//
// TurnService runs one conversational turn: it validates the submitted
// history, asks the model gateway for a reply under the configured persona,
// and, for signed-in users, stores the USER/AI pair (creating and titling the
// chat on first use).
//
// Observability: Take is OpenTelemetry-instrumented with child spans for
// generation, titling and persistence; outcomes and model latency are
// exported as Prometheus metrics.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/bibion-backend/internal/domain"
	"github.com/tbourn/bibion-backend/internal/lock"
	"github.com/tbourn/bibion-backend/internal/observability"
	"github.com/tbourn/bibion-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"
)

// Generator is the model gateway contract.
type Generator interface {
	Generate(ctx context.Context, persona domain.Persona, history []domain.Turn, next string) (string, error)
	SummarizeTitle(ctx context.Context, seed string) (string, error)
}

// TurnResult is what a completed turn reports back to the caller.
type TurnResult struct {
	GeneratedText string
	ChatID        *string // nil for anonymous callers
	Title         string  // set only when the turn created the chat
	AIMessageID   string
}

// TurnService coordinates generation and persistence of chat turns.
type TurnService struct {
	DB      *gorm.DB
	Gen     Generator
	Locker  lock.Locker
	Persona domain.Persona

	// MaxPromptRunes caps the new user message; 0 disables the check.
	MaxPromptRunes int
	// ModelTimeout bounds each gateway call; 0 leaves only the request context.
	ModelTimeout time.Duration
	// TitleTimeout bounds the title call; 0 falls back to ModelTimeout.
	TitleTimeout time.Duration

	// Title generation config
	TitleMaxLen int
	TitleLocale language.Tag
}

// Take validates history, generates a reply and, when userID is non-empty,
// persists the pair into chatID (or into a new chat when chatID is empty).
func (s *TurnService) Take(ctx context.Context, userID string, history []domain.Turn, chatID string) (res *TurnResult, err error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "Take",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.Bool("user.authenticated", userID != ""),
			attribute.Int("history.len", len(history)),
		),
	)
	defer func() {
		observability.TurnsTotal.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	prompt, err := s.validate(history)
	if err != nil {
		return nil, err
	}

	anonymous := userID == ""
	if anonymous {
		// Nothing is stored for anonymous callers, so a supplied chat id is ignored.
		chatID = ""
	} else if chatID != "" {
		if _, err := repo.GetChat(ctx, s.DB, chatID, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrChatNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	text, err := s.generate(ctx, history[:len(history)-1], prompt)
	if err != nil {
		return nil, err
	}
	if anonymous {
		return &TurnResult{GeneratedText: text}, nil
	}

	title := ""
	if chatID == "" {
		title = s.title(ctx, prompt)
	}

	id, aiID, err := s.persist(ctx, userID, chatID, title, prompt, text)
	if err != nil {
		return nil, err
	}
	return &TurnResult{GeneratedText: text, ChatID: &id, Title: title, AIMessageID: aiID}, nil
}

// validate checks the history shape and returns the new user message.
func (s *TurnService) validate(history []domain.Turn) (string, error) {
	if len(history) == 0 {
		return "", ErrEmptyHistory
	}
	last := history[len(history)-1]
	if last.Role != domain.RoleUser {
		return "", ErrLastNotUser
	}
	if strings.TrimSpace(last.Content) == "" {
		return "", ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(last.Content) > s.MaxPromptRunes {
		return "", ErrTooLong
	}
	return last.Content, nil
}

func (s *TurnService) generate(ctx context.Context, prior []domain.Turn, prompt string) (string, error) {
	ctx, span := otel.Tracer("services/TurnService").Start(ctx, "generate")
	defer span.End()

	ctx, cancel := s.withModelTimeout(ctx)
	defer cancel()

	start := time.Now()
	text, err := s.Gen.Generate(ctx, s.Persona, prior, prompt)
	observability.GenerationDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return text, nil
}

// title asks the gateway for a chat title. Failure is not fatal: the
// keyword title and then DefaultTitle take over.
func (s *TurnService) title(ctx context.Context, prompt string) string {
	ctx, span := otel.Tracer("services/TurnService").Start(ctx, "title")
	defer span.End()

	var (
		tctx   context.Context
		cancel context.CancelFunc
	)
	if s.TitleTimeout > 0 {
		tctx, cancel = context.WithTimeout(ctx, s.TitleTimeout)
	} else {
		tctx, cancel = s.withModelTimeout(ctx)
	}
	defer cancel()

	start := time.Now()
	suggested, err := s.Gen.SummarizeTitle(tctx, prompt)
	observability.GenerationDuration.WithLabelValues("title").Observe(time.Since(start).Seconds())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("stage", "title").Msg("title generation failed; using fallback")
		suggested = ""
	}
	return titler{maxLen: s.TitleMaxLen, locale: s.TitleLocale}.choose(suggested, prompt)
}

// persist stores the pair, creating the chat first when chatID is empty.
// Writes to an existing chat run under its lock so pairs never interleave.
func (s *TurnService) persist(ctx context.Context, userID, chatID, title, prompt, reply string) (string, string, error) {
	ctx, span := otel.Tracer("services/TurnService").Start(ctx, "persist",
		trace.WithAttributes(attribute.Bool("chat.new", chatID == "")),
	)
	defer span.End()

	if chatID != "" && s.Locker != nil {
		unlock, err := s.Locker.Lock(ctx, "chat:"+chatID)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		defer unlock()
	}

	var aiID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if chatID == "" {
			c, err := repo.CreateChat(ctx, tx, userID, title)
			if err != nil {
				return err
			}
			chatID = c.ID
		}
		_, ai, err := repo.AppendTurn(ctx, tx, chatID, prompt, reply)
		if err != nil {
			return err
		}
		aiID = ai.ID
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return chatID, aiID, nil
}

func (s *TurnService) withModelTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.ModelTimeout > 0 {
		return context.WithTimeout(ctx, s.ModelTimeout)
	}
	return context.WithCancel(ctx)
}

// outcomeOf maps a Take error to the chat_turns_total label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, ErrChatNotFound):
		return observability.OutcomeNotFound
	case errors.Is(err, ErrGeneration):
		return observability.OutcomeGenerationFailed
	case errors.Is(err, ErrPersistence):
		return observability.OutcomePersistenceFailed
	default:
		return observability.OutcomeBadRequest
	}
}
