// Package extract orchestrates multi-strategy lead extraction: it drives
// the external search backend, feeds each raw batch through the parser and
// scorer, and accumulates unique leads in the merge collection.
package extract

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/winnerlabs/leadminer/internal/dedupe"
	"github.com/winnerlabs/leadminer/internal/model"
	"github.com/winnerlabs/leadminer/internal/parser"
	"github.com/winnerlabs/leadminer/internal/resilience"
	"github.com/winnerlabs/leadminer/internal/scorer"
)

// Searcher is the external collaborator that produces raw text for one
// strategy. Implementations classify quota failures via
// resilience.RateLimitError; any other error is treated as permanent.
type Searcher interface {
	Search(ctx context.Context, q model.Query) (*model.Batch, error)
}

// Progress is invoked after each strategy's merge in sequential runs, with
// the number of strategies settled so far and the current partial ranking.
type Progress func(done, total int, leads []model.Lead)

// Config tunes orchestrator pacing. Only the bounded-retry structure is
// contractual; the durations are backpressure knobs.
type Config struct {
	// Cooldown is the pause between consecutive sequential strategies.
	Cooldown time.Duration

	// RateLimitRetries is how many extra attempts a rate-limited strategy
	// gets before it is given up on.
	RateLimitRetries int

	// RateLimitWait is the base wait before a rate-limit retry; attempt N
	// waits N times this value.
	RateLimitWait time.Duration

	// MaxParallel caps concurrently in-flight strategies in RunParallel.
	// Zero means no cap.
	MaxParallel int
}

// DefaultConfig returns pacing defaults.
func DefaultConfig() Config {
	return Config{
		Cooldown:         3 * time.Second,
		RateLimitRetries: 2,
		RateLimitWait:    10 * time.Second,
	}
}

// Runner executes extraction runs. The parser, profile, and searchers are
// fixed at construction; each run owns its own accumulation state, so
// concurrent runs cannot cross-contaminate.
type Runner struct {
	searcher Searcher
	fallback Searcher // optional; tried once when the primary fails
	parser   *parser.Parser
	profile  scorer.Profile
	cfg      Config
}

// Option configures a Runner.
type Option func(*Runner)

// WithFallback installs a secondary searcher tried once per strategy after
// the primary fails (including after rate-limit retries are exhausted).
func WithFallback(s Searcher) Option {
	return func(r *Runner) {
		r.fallback = s
	}
}

// WithConfig overrides the pacing defaults.
func WithConfig(cfg Config) Option {
	return func(r *Runner) {
		r.cfg = cfg
	}
}

// NewRunner creates a Runner.
func NewRunner(searcher Searcher, p *parser.Parser, profile scorer.Profile, opts ...Option) *Runner {
	r := &Runner{
		searcher: searcher,
		parser:   p,
		profile:  profile,
		cfg:      DefaultConfig(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RunSequential executes one external call per strategy, one at a time,
// merging each result before the next call begins so the caller can observe
// partial rankings. A failing strategy contributes nothing; the run always
// completes. The returned error is non-nil only on context cancellation.
func (r *Runner) RunSequential(ctx context.Context, base model.Query, strategies []string, progress Progress) (*model.Result, error) {
	state := newRunState(r.profile)

	for i, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return state.result(), err
		}

		batch, err := r.callStrategy(ctx, base, strategy)
		state.consume(r, strategy, batch, err)

		if progress != nil {
			progress(i+1, len(strategies), state.leads.Leads())
		}

		// Cooldown between calls as backpressure against the upstream
		// quota; skipped after the final strategy.
		if i < len(strategies)-1 && r.cfg.Cooldown > 0 {
			if err := sleepCtx(ctx, r.cfg.Cooldown); err != nil {
				return state.result(), err
			}
		}
	}

	return r.finish(state, strategies), nil
}

// RunParallel issues all external calls concurrently, then merges every
// settled result in strategy order so the outcome is independent of
// completion order.
func (r *Runner) RunParallel(ctx context.Context, base model.Query, strategies []string) (*model.Result, error) {
	batches := make([]*model.Batch, len(strategies))
	errs := make([]error, len(strategies))

	g := new(errgroup.Group)
	if r.cfg.MaxParallel > 0 {
		g.SetLimit(r.cfg.MaxParallel)
	}
	for i, strategy := range strategies {
		i, strategy := i, strategy
		g.Go(func() error {
			batches[i], errs[i] = r.callStrategy(ctx, base, strategy)
			return nil // individual failures never abort the run
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return &model.Result{Leads: []model.Lead{}, Sources: []model.Source{}}, err
	}

	state := newRunState(r.profile)
	for i, strategy := range strategies {
		state.consume(r, strategy, batches[i], errs[i])
	}

	return r.finish(state, strategies), nil
}

// callStrategy performs the external call for one strategy with bounded
// rate-limit retries, then the optional fallback searcher.
func (r *Runner) callStrategy(ctx context.Context, base model.Query, strategy string) (*model.Batch, error) {
	q := base
	q.Strategy = strategy
	log := zap.L().With(zap.String("strategy", strategy))

	batch, err := r.searcher.Search(ctx, q)
	for attempt := 1; err != nil && resilience.IsRateLimited(err) && attempt <= r.cfg.RateLimitRetries; attempt++ {
		wait := time.Duration(attempt) * r.cfg.RateLimitWait
		log.Warn("extract: rate limited, waiting before retry",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
			return nil, err
		}
		batch, err = r.searcher.Search(ctx, q)
	}

	if err != nil && r.fallback != nil && ctx.Err() == nil {
		log.Warn("extract: primary searcher failed, trying fallback", zap.Error(err))
		if fbBatch, fbErr := r.fallback.Search(ctx, q); fbErr == nil {
			return fbBatch, nil
		}
	}

	return batch, err
}

func (r *Runner) finish(state *runState, strategies []string) *model.Result {
	result := state.result()
	if len(result.Leads) == 0 {
		zap.L().Info("extract: run produced no leads",
			zap.Int("strategies", len(strategies)),
			zap.Int("failures", len(result.Failures)),
		)
	} else {
		zap.L().Info("extract: run complete",
			zap.Int("strategies", len(strategies)),
			zap.Int("leads", len(result.Leads)),
			zap.Int("failures", len(result.Failures)),
		)
	}
	return result
}

// runState is the owned aggregate of one extraction run: the merge
// collection, deduplicated sources, and per-strategy failures.
type runState struct {
	leads    *dedupe.Collection
	sources  []model.Source
	seenURIs map[string]struct{}
	failures []model.StrategyFailure
}

func newRunState(profile scorer.Profile) *runState {
	return &runState{
		leads:    dedupe.NewCollection(profile.Score),
		seenURIs: make(map[string]struct{}),
	}
}

// consume applies one settled strategy outcome: failures are recorded,
// successful batches are parsed, scored, and merged.
func (s *runState) consume(r *Runner, strategy string, batch *model.Batch, err error) {
	if err != nil {
		s.failures = append(s.failures, model.StrategyFailure{
			Strategy:    strategy,
			Error:       err.Error(),
			RateLimited: resilience.IsRateLimited(err),
		})
		return
	}
	if batch == nil {
		return
	}

	cands := r.parser.Parse(batch.RawText)
	for i := range cands {
		cands[i].Score = r.profile.Score(cands[i])
	}
	s.leads.AddAll(cands)

	for _, src := range batch.Sources {
		if src.URI == "" {
			continue
		}
		if _, seen := s.seenURIs[src.URI]; seen {
			continue
		}
		s.seenURIs[src.URI] = struct{}{}
		s.sources = append(s.sources, src)
	}

	zap.L().Debug("extract: strategy merged",
		zap.String("strategy", strategy),
		zap.Int("candidates", len(cands)),
		zap.Int("unique", s.leads.Len()),
	)
}

func (s *runState) result() *model.Result {
	sources := s.sources
	if sources == nil {
		sources = []model.Source{}
	}
	return &model.Result{
		Leads:    s.leads.Leads(),
		Sources:  sources,
		Failures: s.failures,
	}
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
