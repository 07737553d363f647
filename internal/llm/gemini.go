// Package llm adapts the Google Gemini API to the chat orchestrator. It
// converts persona and history into a Gemini chat session and extracts
// plain text from the responses.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tbourn/bibion-backend/internal/domain"
)

// ErrGeneration wraps every failure reported by the model API, including an
// empty candidate set.
var ErrGeneration = errors.New("model generation failed")

// Gemini role names.
const (
	roleUser  = "user"
	roleModel = "model"
)

const titlePrompt = `Generate a short, catchy title (max 6 words) for a Christian conversation that starts with this message: "%s"`

// Config configures the Gemini client.
type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
}

// backend is the slice of the genai API the gateway uses.
type backend interface {
	chat(ctx context.Context, history []*genai.Content, msg string) (*genai.GenerateContentResponse, error)
	generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
	close() error
}

// Gemini is the model gateway.
type Gemini struct {
	be backend
}

// NewGemini creates a Gemini client for cfg.Model.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = "gemini-1.5-flash"
	}
	tokens := cfg.MaxOutputTokens
	if tokens <= 0 {
		tokens = 1000
	}
	model := client.GenerativeModel(name)
	model.SetMaxOutputTokens(int32(tokens))

	return &Gemini{be: &genaiBackend{client: client, model: model}}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.be.close()
}

// Generate primes a fresh chat session with the persona, replays history
// and sends next. Nothing is retried.
func (g *Gemini) Generate(ctx context.Context, persona domain.Persona, history []domain.Turn, next string) (string, error) {
	resp, err := g.be.chat(ctx, buildHistory(persona, history), next)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return text, nil
}

// SummarizeTitle asks for a short title for a conversation that opens with
// seed. One pair of wrapping double quotes is removed.
func (g *Gemini) SummarizeTitle(ctx context.Context, seed string) (string, error) {
	resp, err := g.be.generate(ctx, fmt.Sprintf(titlePrompt, seed))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	title := cleanTitle(extractText(resp))
	if title == "" {
		return "", fmt.Errorf("%w: empty title", ErrGeneration)
	}
	return title, nil
}

// buildHistory lays out the bootstrap pair followed by the prior turns.
func buildHistory(persona domain.Persona, history []domain.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history)+2)
	out = append(out,
		&genai.Content{Role: roleUser, Parts: []genai.Part{genai.Text(persona.Instructions)}},
		&genai.Content{Role: roleModel, Parts: []genai.Part{genai.Text(persona.Acknowledgement)}},
	)
	for _, t := range history {
		role := roleModel
		if t.Role == domain.RoleUser {
			role = roleUser
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	return out
}

// extractText concatenates every text part of every candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// genaiBackend is the production backend.
type genaiBackend struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func (b *genaiBackend) chat(ctx context.Context, history []*genai.Content, msg string) (*genai.GenerateContentResponse, error) {
	cs := b.model.StartChat()
	cs.History = history
	return cs.SendMessage(ctx, genai.Text(msg))
}

func (b *genaiBackend) generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	return b.model.GenerateContent(ctx, genai.Text(prompt))
}

func (b *genaiBackend) close() error {
	return b.client.Close()
}
