// Package claude is the fallback lead searcher backed by the Anthropic API.
// It has no live search grounding, so it is only consulted after the primary
// backend fails; results carry no sources.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/winnerlabs/leadminer/internal/model"
	"github.com/winnerlabs/leadminer/internal/resilience"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 4096
)

// messenger is the slice of the SDK messages service the searcher uses.
// Tests substitute a fake.
type messenger interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Searcher produces lead batches from the Anthropic messages API.
type Searcher struct {
	messages  messenger
	model     string
	maxTokens int64
}

// Option configures the Searcher.
type Option func(*Searcher)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(s *Searcher) {
		s.model = model
	}
}

// WithMaxTokens overrides the default response token cap.
func WithMaxTokens(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxTokens = int64(n)
		}
	}
}

// withMessenger swaps the SDK-backed messages service; test hook.
func withMessenger(m messenger) Option {
	return func(s *Searcher) {
		s.messages = m
	}
}

// NewSearcher creates a Searcher backed by the official SDK.
func NewSearcher(apiKey string, opts ...Option) *Searcher {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	s := &Searcher{
		messages:  &client.Messages,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search asks the model for leads in the delimiter format the parser
// consumes. API rate limits are classified as resilience.RateLimitError.
func (s *Searcher) Search(ctx context.Context, q model.Query) (*model.Batch, error) {
	msg, err := s.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(s.model),
		MaxTokens: s.maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt(q)}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(fmt.Sprintf("Lista de empresas: %s em %s", q.Niche, q.Location))),
		},
		Temperature: sdk.Float(0.1),
	})
	if err != nil {
		wrapped := eris.Wrap(err, "claude: create message")
		var apierr *sdk.Error
		if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.NewRateLimitError(wrapped, apierr.StatusCode)
		}
		if resilience.IsRateLimited(err) {
			return nil, resilience.NewRateLimitError(wrapped, 0)
		}
		return nil, wrapped
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	// No grounding: batches from this backend carry no sources.
	return &model.Batch{RawText: text.String()}, nil
}

// systemPrompt mirrors the primary backend's output contract so both feed
// the same parser. The model is told to prefer N/A over invention since it
// cannot verify against live search results.
func systemPrompt(q model.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Você é um extrator de leads. Liste empresas conhecidas de %q em %q.\n", q.Niche, q.Location)
	if q.Strategy != "" {
		fmt.Fprintf(&b, "Estratégia desta busca: %s.\n", q.Strategy)
	}
	b.WriteString(`Liste apenas empresas que você conhece de fato; use N/A para qualquer campo incerto. Use exatamente o formato:
---
Nome: [Nome]
CNPJ: [CNPJ ou N/A]
Telefone: [DDD + Número ou N/A]
Email: [Email ou N/A]
Endereço: [Endereço ou N/A]
Avaliação: [Nota no Google ou N/A]
Site: [URL ou N/A]
Instagram: [Perfil ou N/A]
Facebook: [Página ou N/A]
---`)
	return b.String()
}
