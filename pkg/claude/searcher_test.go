package claude

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winnerlabs/leadminer/internal/model"
	"github.com/winnerlabs/leadminer/internal/resilience"
)

type fakeMessenger struct {
	gotParams sdk.MessageNewParams
	msg       *sdk.Message
	err       error
}

func (f *fakeMessenger) New(_ context.Context, params sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	f.gotParams = params
	return f.msg, f.err
}

func newTestSearcher(m messenger, opts ...Option) *Searcher {
	opts = append(opts, withMessenger(m))
	return NewSearcher("test-key", opts...)
}

func TestSearch(t *testing.T) {
	fake := &fakeMessenger{msg: &sdk.Message{
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "---\nNome: Acme Padaria\nCNPJ: N/A\nTelefone: (11) 91234-5678\n---"},
			{Type: "tool_use"},
			{Type: "text", Text: "\nFim."},
		},
	}}
	s := newTestSearcher(fake, WithModel("claude-haiku-4-5-20251001"), WithMaxTokens(2048))

	batch, err := s.Search(context.Background(), model.Query{
		Niche: "padaria", Location: "São Paulo", Strategy: "Busca Expressa: Contatos diretos e Localização",
	})
	require.NoError(t, err)
	assert.Contains(t, batch.RawText, "Nome: Acme Padaria")
	assert.Contains(t, batch.RawText, "Fim.")
	assert.Empty(t, batch.Sources)

	assert.Equal(t, sdk.Model("claude-haiku-4-5-20251001"), fake.gotParams.Model)
	assert.Equal(t, int64(2048), fake.gotParams.MaxTokens)
	require.Len(t, fake.gotParams.System, 1)
	sys := fake.gotParams.System[0].Text
	assert.Contains(t, sys, `"padaria"`)
	assert.Contains(t, sys, "Busca Expressa")
	assert.Contains(t, sys, "Nome: [Nome]")
}

func TestSearchRateLimitedMessage(t *testing.T) {
	fake := &fakeMessenger{err: errors.New("429: rate limit exceeded")}
	s := newTestSearcher(fake)

	_, err := s.Search(context.Background(), model.Query{Niche: "padaria", Location: "SP"})
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimited(err))
}

func TestSearchPermanentError(t *testing.T) {
	fake := &fakeMessenger{err: errors.New("invalid api key")}
	s := newTestSearcher(fake)

	_, err := s.Search(context.Background(), model.Query{Niche: "padaria", Location: "SP"})
	require.Error(t, err)
	assert.False(t, resilience.IsRateLimited(err))
	assert.Contains(t, err.Error(), "claude: create message")
}

func TestSearchDefaults(t *testing.T) {
	fake := &fakeMessenger{msg: &sdk.Message{}}
	s := newTestSearcher(fake)

	batch, err := s.Search(context.Background(), model.Query{Niche: "padaria", Location: "SP"})
	require.NoError(t, err)
	assert.Empty(t, batch.RawText)
	assert.Equal(t, sdk.Model(defaultModel), fake.gotParams.Model)
	assert.Equal(t, int64(defaultMaxTokens), fake.gotParams.MaxTokens)
}
