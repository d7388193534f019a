package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/staff-finder/internal/config"
	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/planner"
	"github.com/sells-group/staff-finder/internal/ratelimit"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/resolver"
	"github.com/sells-group/staff-finder/internal/search"
	"github.com/sells-group/staff-finder/internal/selector"
	"github.com/sells-group/staff-finder/internal/shortlist"
	"github.com/sells-group/staff-finder/internal/store"
)

// pipelineEnv holds everything the run, resolve and serve commands share.
type pipelineEnv struct {
	Store    store.Store // nil when store.driver is none
	Resolver *resolver.Resolver
	Usage    *cost.Tracker
	Breakers *resilience.ServiceBreakers
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config for mode, opens the store and builds the
// resolver. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &pipelineEnv{
		Usage:    cost.NewTracker(),
		Breakers: newBreakers(cfg.Breaker),
	}

	if cfg.Store.Driver != "none" {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	r, err := buildResolver(ctx, env)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Resolver = r
	return env, nil
}

// newBreakers returns the per-provider breaker registry. Only provider
// failures count toward tripping; throttling, auth errors and bad selector
// output do not.
func newBreakers(bc config.BreakerConfig) *resilience.ServiceBreakers {
	cbCfg := resilience.FromBreakerConfig(bc.FailureThreshold, bc.ResetTimeoutSecs)
	cbCfg.ShouldTrip = resilience.IsProviderError
	return resilience.NewServiceBreakers(cbCfg)
}

func buildResolver(ctx context.Context, env *pipelineEnv) (*resolver.Resolver, error) {
	gw, err := search.New(cfg, env.Breakers)
	if err != nil {
		return nil, err
	}
	sel, err := selector.New(ctx, cfg, env.Usage, env.Breakers)
	if err != nil {
		return nil, err
	}
	rules, err := shortlistRules(cfg.Shortlist)
	if err != nil {
		return nil, invalidInput(err)
	}

	deps := resolver.Deps{
		Planner:     planner.New(cfg.Planner.MaxQueries),
		Gateway:     gw,
		Shortlister: shortlist.New(rules),
		Selector:    sel,
		Limiter: ratelimit.New(map[string]ratelimit.Budget{
			ratelimit.Search:   budget(cfg.RateLimit.Search),
			ratelimit.Selector: budget(cfg.RateLimit.Selector),
		}, cfg.RateLimit.Adaptive),
		Usage: env.Usage,
	}
	if env.Store != nil && cfg.Cache.Enabled && cfg.Search.Provider != search.ProviderFixture {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		deps.Cache = store.NewSearchCache(env.Store, cfg.Search.Provider, ttl)
		zap.L().Debug("search cache enabled", zap.Duration("ttl", ttl))
	}

	return resolver.New(deps, resolver.Options{
		Policy:        retryPolicy(cfg.Retry),
		SearchTimeout: search.Timeout(cfg),
		SelectTimeout: selector.Timeout(cfg),
	}), nil
}

func retryPolicy(rc config.RetryConfig) resilience.Policy {
	sched := func(b config.BackoffConfig) resilience.RetryConfig {
		return resilience.Schedule(b.MaxAttempts, b.InitialBackoffMs, b.MaxBackoffMs, b.Multiplier, b.Jitter)
	}
	return resilience.Policy{
		RateLimit: sched(rc.RateLimit),
		Provider:  sched(rc.Provider),
	}
}

func budget(b config.Budget) ratelimit.Budget {
	return ratelimit.Budget{
		Requests: b.Requests,
		Window:   time.Duration(b.WindowSecs * float64(time.Second)),
	}
}

// shortlistRules converts config to scoring rules, overlaid with the rules
// file when one is set.
func shortlistRules(sc config.ShortlistConfig) (shortlist.Rules, error) {
	rules := shortlist.Rules{
		Size:          sc.Size,
		StaffTokens:   sc.StaffTokens,
		PenaltyTokens: sc.PenaltyTokens,
		Denylist:      sc.Denylist,
		Weights: shortlist.Weights{
			Staff:    sc.StaffWeight,
			Penalty:  sc.PenaltyWeight,
			Deny:     sc.DenyWeight,
			Position: sc.PositionWeight,
		},
	}
	if sc.RulesFile == "" {
		return rules, nil
	}
	rules, err := shortlist.LoadRules(sc.RulesFile, rules)
	if err != nil {
		return rules, eris.Wrap(err, "load shortlist rules")
	}
	return rules, nil
}
