// Package resolver runs the per-school pipeline: plan queries, search,
// shortlist, select, and validate the decision into a Result.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/ratelimit"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/shortlist"
)

// ExistingURLReasoning is recorded for rows resolved by the existing-URL bypass.
const ExistingURLReasoning = "pre-supplied URL"

// Gateway returns ordered search hits for a free-text query. Failures are
// reported as *resilience.ProviderError or *resilience.RateLimitError.
type Gateway interface {
	Search(ctx context.Context, query string) ([]model.SearchHit, error)
}

// Selector chooses at most one candidate as the school's staff directory.
type Selector interface {
	Select(ctx context.Context, school model.SchoolRecord, candidates []model.Candidate) (model.Decision, error)
}

// Planner builds the search queries for a school.
type Planner interface {
	Plan(school model.SchoolRecord) []string
}

// Shortlister scores hits into a bounded candidate list.
type Shortlister interface {
	Shortlist(hits []model.SearchHit) []model.Candidate
}

// Limiter gates provider calls. Keys are ratelimit.Search and ratelimit.Selector.
type Limiter interface {
	Acquire(ctx context.Context, provider string) error
	ReportRateLimited(provider string)
	ReportSuccess(provider string)
}

// Cache stores search hits per query. Errors are logged and ignored.
type Cache interface {
	GetSearch(ctx context.Context, query string) ([]model.SearchHit, bool, error)
	PutSearch(ctx context.Context, query string, hits []model.SearchHit) error
}

// Deps are the collaborators a Resolver needs. Cache and Usage are optional.
type Deps struct {
	Planner     Planner
	Gateway     Gateway
	Shortlister Shortlister
	Selector    Selector
	Limiter     Limiter
	Cache       Cache
	Usage       *cost.Tracker
}

// Options tune retries and per-call timeouts.
type Options struct {
	Policy        resilience.Policy
	SearchTimeout time.Duration
	SelectTimeout time.Duration
}

// Resolver turns one SchoolRecord into one Result. It holds no per-school
// state and is safe for concurrent use.
type Resolver struct {
	deps Deps
	opts Options
}

// New creates a Resolver.
func New(deps Deps, opts Options) *Resolver {
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 30 * time.Second
	}
	if opts.SelectTimeout <= 0 {
		opts.SelectTimeout = 60 * time.Second
	}
	return &Resolver{deps: deps, opts: opts}
}

// run tracks the state machine for a single school.
type run struct {
	school model.SchoolRecord
	state  State
	log    *zap.Logger
}

func (r *run) to(s State) {
	if r.state.Terminal() {
		return
	}
	r.log.Debug("resolver transition", zap.Stringer("from", r.state), zap.Stringer("to", s))
	r.state = s
}

func (r *run) done(res model.Result) model.Result {
	r.to(StateDone)
	return res
}

func (r *run) fail(reason string) model.Result {
	r.to(StateError)
	r.log.Warn("resolver error", zap.String("reason", reason))
	return model.ErrorResult(r.school, reason)
}

// Resolve runs the pipeline for one school. Every error is converted into a
// terminal Result; Resolve never returns an error.
func (rs *Resolver) Resolve(ctx context.Context, school model.SchoolRecord) model.Result {
	r := &run{
		school: school,
		state:  StatePlanning,
		log:    zap.L().With(zap.Int("row", school.Row), zap.String("school", school.Name)),
	}

	// A pre-supplied URL is kept even when the name is blank; only rows that
	// need a search require a name.
	if school.HasExistingURL() {
		r.to(StateShortlisting)
		return r.done(model.Found(school, strings.TrimSpace(school.ExistingURL), model.ConfidenceHigh, ExistingURLReasoning))
	}

	if strings.TrimSpace(school.Name) == "" {
		verr := &ValidationError{Field: "name", Reason: "is required"}
		return r.fail(verr.Error())
	}

	queries := rs.deps.Planner.Plan(school)
	r.to(StateSearching)

	var (
		perQuery  [][]model.SearchHit
		failed    int
		lastErr   error
		permanent error
	)
	for _, q := range queries {
		hits, err := rs.search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return r.fail(model.CancelledReasoning)
			}
			failed++
			lastErr = err
			if resilience.Classify(err) == "permanent" && permanent == nil {
				permanent = err
			}
			r.log.Warn("search query failed, moving on",
				zap.String("query", q),
				zap.String("class", resilience.Classify(err)),
				zap.Error(err),
			)
			continue
		}
		perQuery = append(perQuery, hits)
	}

	merged := shortlist.Merge(perQuery...)
	if len(merged) == 0 && permanent != nil {
		// Bad keys and rejected requests are failures, not empty results.
		return r.fail("search failed: " + permanent.Error())
	}
	if len(merged) == 0 {
		reason := "no search results"
		if failed > 0 {
			reason = fmt.Sprintf("no search results (%d of %d queries failed: %v)", failed, len(queries), lastErr)
		}
		return r.done(model.NotFoundResult(school, model.ConfidenceLow, reason))
	}

	r.to(StateShortlisting)
	candidates := rs.deps.Shortlister.Shortlist(merged)
	if len(candidates) == 0 {
		return r.done(model.NotFoundResult(school, model.ConfidenceLow, "no plausible candidates after filtering"))
	}

	r.to(StateSelecting)
	decision, err := rs.selectDecision(ctx, school, candidates)
	if err != nil {
		if ctx.Err() != nil {
			return r.fail(model.CancelledReasoning)
		}
		return r.fail("selector failed: " + err.Error())
	}

	url, err := ValidateDecision(decision, candidates)
	if err != nil {
		return r.fail(err.Error())
	}
	if decision.SelectedIndex == 0 {
		return r.done(model.NotFoundResult(school, decision.Confidence, decision.Reasoning))
	}
	return r.done(model.Found(school, url, decision.Confidence, decision.Reasoning))
}

// search runs one query through the cache, the rate limiter, the per-call
// timeout and the two-class retry policy.
func (rs *Resolver) search(ctx context.Context, query string) ([]model.SearchHit, error) {
	if rs.deps.Cache != nil {
		hits, ok, err := rs.deps.Cache.GetSearch(ctx, query)
		if err != nil {
			zap.L().Warn("search cache read failed", zap.String("query", query), zap.Error(err))
		} else if ok {
			rs.deps.Usage.AddCacheHit()
			return hits, nil
		}
	}

	policy := rs.opts.Policy
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger(ratelimit.Search, "search")
	}

	hits, err := resilience.DoPolicy(ctx, policy, func(ctx context.Context) ([]model.SearchHit, error) {
		return callWithLimit(ctx, rs.deps.Limiter, ratelimit.Search, rs.opts.SearchTimeout, func(ctx context.Context) ([]model.SearchHit, error) {
			rs.deps.Usage.AddSearch()
			return rs.deps.Gateway.Search(ctx, query)
		})
	})
	if err != nil {
		return nil, err
	}

	if rs.deps.Cache != nil {
		if err := rs.deps.Cache.PutSearch(ctx, query, hits); err != nil {
			zap.L().Warn("search cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return hits, nil
}

func (rs *Resolver) selectDecision(ctx context.Context, school model.SchoolRecord, candidates []model.Candidate) (model.Decision, error) {
	policy := rs.opts.Policy
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger(ratelimit.Selector, "select")
	}
	return resilience.DoPolicy(ctx, policy, func(ctx context.Context) (model.Decision, error) {
		return callWithLimit(ctx, rs.deps.Limiter, ratelimit.Selector, rs.opts.SelectTimeout, func(ctx context.Context) (model.Decision, error) {
			return rs.deps.Selector.Select(ctx, school, candidates)
		})
	})
}

// callWithLimit acquires a slot for key, then runs fn under timeout. A
// timeout while the parent context is live is reported as a ProviderError.
func callWithLimit[T any](ctx context.Context, lim Limiter, key string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := lim.Acquire(ctx, key); err != nil {
		return zero, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	val, err := fn(callCtx)
	switch {
	case err == nil:
		lim.ReportSuccess(key)
		return val, nil
	case resilience.IsRateLimited(err):
		lim.ReportRateLimited(key)
	case ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
		var pe *resilience.ProviderError
		if !errors.As(err, &pe) {
			err = resilience.NewProviderError(key, 0, fmt.Errorf("timed out after %s: %w", timeout, err))
		}
	}
	return zero, err
}
