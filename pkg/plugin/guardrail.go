package plugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// GuardedPolicy wraps a PolicyEngine with a circuit breaker, a redis-backed
// response cache keyed by (candle_hash, signal_fingerprint), and per-day
// call-count/cost caps (§4.4 gate 6). Cache misses are not deduplicated:
// concurrent calls that miss on the same key each call the inner engine.
type GuardedPolicy struct {
	inner   PolicyEngine
	breaker *gobreaker.CircuitBreaker
	cache   *redis.Client
	cacheTTL time.Duration

	mu             sync.Mutex
	day            string
	callsToday     int
	costTodayUSD   float64
	maxDailyCalls  int
	maxDailyCostUSD float64

	timeout     time.Duration
	failureMode FailureMode
	costPerCall float64
}

// GuardedPolicyConfig configures a GuardedPolicy.
type GuardedPolicyConfig struct {
	CacheTTL        time.Duration
	MaxDailyCalls   int
	MaxDailyCostUSD float64
	Timeout         time.Duration
	FailureMode     FailureMode
	CostPerCallUSD  float64
}

func NewGuardedPolicy(inner PolicyEngine, cache *redis.Client, cfg GuardedPolicyConfig) *GuardedPolicy {
	settings := gobreaker.Settings{
		Name:        "llm_policy",
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}
	return &GuardedPolicy{
		inner:           inner,
		breaker:         gobreaker.NewCircuitBreaker(settings),
		cache:           cache,
		cacheTTL:        cfg.CacheTTL,
		maxDailyCalls:   cfg.MaxDailyCalls,
		maxDailyCostUSD: cfg.MaxDailyCostUSD,
		timeout:         cfg.Timeout,
		failureMode:     cfg.FailureMode,
		costPerCall:     cfg.CostPerCallUSD,
	}
}

// Analyze serves a cached decision when available, otherwise calls inner
// through the breaker subject to the daily guardrails, falling back to
// FailureMode on error, timeout, cap breach, or open breaker.
func (g *GuardedPolicy) Analyze(ctx context.Context, pc PolicyContext) (PolicyDecision, error) {
	key := cacheKey(pc)

	if g.cache != nil {
		if cached, ok := g.readCache(ctx, key); ok {
			return cached, nil
		}
	}

	if !g.withinDailyCaps() {
		return g.fallback("daily call/cost cap reached")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Analyze(ctx, pc)
	})
	if err != nil {
		return g.fallback(err.Error())
	}

	decision := result.(PolicyDecision)
	g.recordCall()

	if g.cache != nil {
		g.writeCache(ctx, key, decision)
	}

	return decision, nil
}

func (g *GuardedPolicy) fallback(reason string) (PolicyDecision, error) {
	if g.failureMode == FailureReject {
		return PolicyDecision{Accept: false, Reason: "llm policy unavailable: " + reason}, nil
	}
	return PolicyDecision{Accept: true, RiskMode: RiskModeNormal, Reason: "llm policy passthrough: " + reason}, nil
}

func (g *GuardedPolicy) withinDailyCaps() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()
	if g.maxDailyCalls > 0 && g.callsToday >= g.maxDailyCalls {
		return false
	}
	if g.maxDailyCostUSD > 0 && g.costTodayUSD+g.costPerCall > g.maxDailyCostUSD {
		return false
	}
	return true
}

func (g *GuardedPolicy) recordCall() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()
	g.callsToday++
	g.costTodayUSD += g.costPerCall
}

func (g *GuardedPolicy) rolloverLocked() {
	today := time.Now().UTC().Format("2006-01-02")
	if g.day != today {
		g.day = today
		g.callsToday = 0
		g.costTodayUSD = 0
	}
}

func (g *GuardedPolicy) readCache(ctx context.Context, key string) (PolicyDecision, bool) {
	raw, err := g.cache.Get(ctx, key).Result()
	if err != nil {
		return PolicyDecision{}, false
	}
	var decision PolicyDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return PolicyDecision{}, false
	}
	return decision, true
}

func (g *GuardedPolicy) writeCache(ctx context.Context, key string, decision PolicyDecision) {
	raw, err := json.Marshal(decision)
	if err != nil {
		return
	}
	g.cache.Set(ctx, key, raw, g.cacheTTL)
}

func cacheKey(pc PolicyContext) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", pc.CandleHash, pc.SignalFingerprint)))
	return "llm_policy:" + hex.EncodeToString(sum[:16])
}
