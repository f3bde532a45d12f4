package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/winnerlabs/leadminer/internal/extract"
	"github.com/winnerlabs/leadminer/internal/parser"
	"github.com/winnerlabs/leadminer/internal/scorer"
	"github.com/winnerlabs/leadminer/internal/store"
	"github.com/winnerlabs/leadminer/pkg/claude"
	"github.com/winnerlabs/leadminer/pkg/gemini"
)

// pipelineEnv bundles the wired-up components a mining command needs.
type pipelineEnv struct {
	Runner  *extract.Runner
	Profile scorer.Profile
	Store   store.Store
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline builds the searcher stack, scoring profile, and store from
// the loaded config. profileName overrides cfg.Scoring.Profile when set.
func initPipeline(ctx context.Context, profileName string) (*pipelineEnv, error) {
	if profileName == "" {
		profileName = cfg.Scoring.Profile
	}
	profile, err := scorer.ByName(profileName, cfg.Scoring.ProfilesPath)
	if err != nil {
		return nil, err
	}

	searcher := gemini.NewClient(cfg.Gemini.Key,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithRateLimit(cfg.Gemini.RateLimit),
	)

	opts := []extract.Option{
		extract.WithConfig(extract.Config{
			Cooldown:         time.Duration(cfg.Extract.CooldownSecs) * time.Second,
			RateLimitRetries: cfg.Extract.RateLimitRetries,
			RateLimitWait:    time.Duration(cfg.Extract.RateLimitWaitSecs) * time.Second,
			MaxParallel:      cfg.Extract.MaxParallel,
		}),
	}
	if cfg.Extract.Hybrid {
		opts = append(opts, extract.WithFallback(claude.NewSearcher(cfg.Anthropic.Key,
			claude.WithModel(cfg.Anthropic.Model),
			claude.WithMaxTokens(cfg.Anthropic.MaxTokens),
		)))
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	return &pipelineEnv{
		Runner:  extract.NewRunner(searcher, parser.New(parser.DefaultConfig()), profile, opts...),
		Profile: profile,
		Store:   st,
	}, nil
}
