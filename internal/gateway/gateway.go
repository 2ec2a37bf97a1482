// Package gateway implements the LLM Gateway (spec.md 4.3): the single
// choke point every agent calls through to reach a model. It applies
// the provider parameter policy, enforces per-provider rate limits,
// retries transient failures with backoff, falls back to a secondary
// model on persistent provider failure, enforces a daily cost budget,
// and emits an audit_event artifact for every call it makes.
//
// Built on internal/registry.Registry (model/provider resolution and
// client construction) and internal/ratelimit.RateLimiter (token-bucket
// limiting); the retry/backoff and fallback-routing logic wraps every
// call through a registry client in policy before it ever reaches a
// provider.
package gateway

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/llm"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/metrics"
	"github.com/discernus/discernus-core/internal/parampolicy"
	"github.com/discernus/discernus-core/internal/ratelimit"
	"github.com/discernus/discernus-core/internal/registry"
	"github.com/google/uuid"
)

// CostPerMillionTokens is the static cost table spec.md 4.3 requires for
// the daily-budget pre-flight check. Figures are USD per million tokens,
// input and output priced separately; models absent from the table are
// treated as free (a researcher adding a new model should add its cost
// here before relying on budget enforcement for it).
var CostPerMillionTokens = map[string]struct{ Input, Output float64 }{
	"gpt-4o":                    {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":               {Input: 0.15, Output: 0.60},
	"claude-3-5-sonnet-latest":  {Input: 3.00, Output: 15.00},
	"claude-3-5-haiku-latest":   {Input: 0.80, Output: 4.00},
	"vertex_ai/gemini-1.5-pro":  {Input: 1.25, Output: 5.00},
	"vertex_ai/gemini-1.5-flash": {Input: 0.075, Output: 0.30},
}

// Request is a single call through the Gateway.
type Request struct {
	Model        string
	FallbackModel string // tried only if Model exhausts its retries
	Prompt       string
	Params       map[string]any
}

// Response is what the Gateway hands back to a caller.
type Response struct {
	Result         *llm.ProviderResult
	ModelUsed      string // req.Model, or req.FallbackModel if the primary exhausted retries
	FallbackUsed   bool
	FallbackReason string
	ParseStrategy  string // "tool_call", or an internal/respparse strategy name
	CostUSD        float64
}

// Budget tracks a rolling daily spend ceiling, reset by the caller at
// the start of each calendar day (the Gateway itself is budget-period
// agnostic; it only refuses a call that would push spend over Limit).
type Budget struct {
	LimitUSD float64
	SpentUSD float64
}

func (b *Budget) wouldExceed(costUSD float64) bool {
	if b == nil || b.LimitUSD <= 0 {
		return false
	}
	return b.SpentUSD+costUSD > b.LimitUSD
}

// Gateway is the single entry point for every model call the core makes.
type Gateway struct {
	registry *registry.Registry
	policy   *parampolicy.Manager
	limiters map[string]*ratelimit.RateLimiter
	metrics  metrics.Collector
	store    *cas.Store
	logger   logutil.LoggerInterface
	budget   *Budget

	maxRetries int
	apiKeyFor  func(provider string) string
}

// New builds a Gateway. apiKeyFor resolves a provider tag to its API key
// (typically internal/apikey.GetAPIKey bound per call site).
func New(reg *registry.Registry, store *cas.Store, collector metrics.Collector, logger logutil.LoggerInterface, apiKeyFor func(provider string) string) *Gateway {
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Gateway{
		registry:   reg,
		policy:     parampolicy.NewManager(logger),
		limiters:   make(map[string]*ratelimit.RateLimiter),
		metrics:    collector,
		store:      store,
		logger:     logger,
		maxRetries: 3,
		apiKeyFor:  apiKeyFor,
	}
}

// WithBudget attaches a daily cost ceiling, returning the Gateway for
// chaining.
func (g *Gateway) WithBudget(b *Budget) *Gateway {
	g.budget = b
	return g
}

// limiterFor returns the rate limiter for a provider, creating it with
// the provider-appropriate policy on first use: a generous token bucket
// for cloud providers, and a tight one-at-a-time bucket (an effective
// fixed inter-request gap) for ollama, which serves one local model at
// a time.
func (g *Gateway) limiterFor(provider string) *ratelimit.RateLimiter {
	if rl, ok := g.limiters[provider]; ok {
		return rl
	}
	var rl *ratelimit.RateLimiter
	if provider == "ollama" {
		rl = ratelimit.NewRateLimiter(1, 20) // one in flight, 20/min ceiling
	} else {
		rl = ratelimit.NewRateLimiter(8, 300)
	}
	g.limiters[provider] = rl
	return rl
}

// Call executes req: clean parameters, rate-limit, retry with backoff,
// fall back on exhaustion, and record an audit_event artifact.
func (g *Gateway) Call(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	stop := g.metrics.StartTimer("gateway_call_duration", req.Model)
	defer stop()

	provider := g.resolveProvider(ctx, req.Model)
	estCost := estimateCostUSD(req.Model, req.Prompt)
	if g.budget.wouldExceed(estCost) {
		return nil, llm.Wrap(fmt.Errorf("daily budget of $%.2f would be exceeded by an estimated $%.4f call", g.budget.LimitUSD, estCost), provider, "gateway: budget pre-flight check failed", llm.CategoryInvalidRequest)
	}

	result, err := g.callWithRetry(ctx, req.Model, req.Prompt, req.Params)
	modelUsed := req.Model
	fallbackUsed := false
	fallbackReason := ""
	if err != nil && req.FallbackModel != "" {
		g.logger.Warn("gateway: model %s exhausted retries (%v), falling back to %s", req.Model, err, req.FallbackModel)
		fallbackUsed = true
		fallbackReason = err.Error()
		result, err = g.callWithRetry(ctx, req.FallbackModel, req.Prompt, req.Params)
		modelUsed = req.FallbackModel
	}
	if err != nil {
		g.recordAuditEvent(ctx, req, nil, fallbackUsed, fallbackReason, time.Since(start), err)
		return nil, err
	}

	resp := &Response{
		Result:         result,
		ModelUsed:      modelUsed,
		FallbackUsed:   fallbackUsed,
		FallbackReason: fallbackReason,
		CostUSD:        estCost,
	}
	if result.ToolCallName != "" {
		resp.ParseStrategy = "tool_call"
	}

	g.recordAuditEvent(ctx, req, result, fallbackUsed, fallbackReason, time.Since(start), nil)
	g.metrics.IncrCounter("gateway_calls_total", provider)
	return resp, nil
}

// resolveProvider prefers the registry's own model->provider mapping
// (the source of truth for models.yaml-defined aliases) and falls back
// to parampolicy's "provider/model" prefix heuristic for ad hoc model
// strings the registry doesn't know about.
func (g *Gateway) resolveProvider(ctx context.Context, model string) string {
	if g.registry != nil {
		if def, err := g.registry.GetModel(ctx, model); err == nil {
			return def.Provider
		}
	}
	return parampolicy.ProviderForModel(model)
}

func (g *Gateway) callWithRetry(ctx context.Context, model, prompt string, params map[string]any) (*llm.ProviderResult, error) {
	provider := g.resolveProvider(ctx, model)
	clean := g.policy.CleanForProvider(provider, params)

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			if !isRetryable(lastErr) {
				return nil, lastErr
			}
			delay := backoffDelay(attempt)
			g.logger.Debug("gateway: retrying %s call to %s (attempt %d) after %v", provider, model, attempt, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		rl := g.limiterFor(provider)
		if err := rl.Acquire(ctx, model); err != nil {
			return nil, llm.Wrap(err, provider, "gateway: rate limiter acquisition failed", llm.CategoryCancelled)
		}

		result, err := g.invoke(ctx, model, provider, prompt, clean)
		rl.Release()
		if err == nil {
			return result, nil
		}
		lastErr = err
		g.metrics.IncrCounter("gateway_call_errors_total", provider)
	}
	return nil, lastErr
}

func (g *Gateway) invoke(ctx context.Context, model, provider, prompt string, params map[string]any) (*llm.ProviderResult, error) {
	apiKey := ""
	if g.apiKeyFor != nil {
		apiKey = g.apiKeyFor(provider)
	}
	client, err := g.registry.CreateLLMClient(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	return client.GenerateContent(ctx, prompt, params)
}

// isRetryable classifies an error by the LLM error taxonomy: rate
// limits, network blips, and server errors are worth retrying; auth,
// invalid-request, content-filter, and input-limit errors are not, and
// retrying them would waste the remaining attempt budget.
func isRetryable(err error) bool {
	return llm.IsRateLimit(err) || llm.IsNetwork(err) || llm.IsServer(err)
}

// backoffDelay is exponential with full jitter, capped at 20s.
func backoffDelay(attempt int) time.Duration {
	base := math.Min(float64(attempt*attempt)*250, 20000)
	return time.Duration(rand.Int63n(int64(base)+1)) * time.Millisecond
}

func estimateCostUSD(model, prompt string) float64 {
	cost, ok := CostPerMillionTokens[model]
	if !ok {
		return 0
	}
	estTokens := float64(len(prompt)) / 4.0
	return (estTokens / 1_000_000) * cost.Input
}

// PreflightEstimate sums a rough cost projection for a run's full
// (document, model) matrix before any call is made (spec.md 4.12 step
// 3): avgPromptChars approximates one analysis-plus-verification
// prompt pair, the same len/4 token heuristic estimateCostUSD uses per
// call. Models absent from CostPerMillionTokens contribute zero, same
// as a real call to them would.
func (g *Gateway) PreflightEstimate(models []string, documentCount, avgPromptChars int) float64 {
	sample := make([]byte, avgPromptChars)
	prompt := string(sample)
	var total float64
	for _, model := range models {
		total += estimateCostUSD(model, prompt) * float64(documentCount) * 2 // analysis + verification
	}
	return total
}

// WouldExceedBudget reports whether estimatedUSD would push the
// Gateway's attached budget over its limit, for callers that need the
// pre-flight verdict without making a call.
func (g *Gateway) WouldExceedBudget(estimatedUSD float64) bool {
	return g.budget.wouldExceed(estimatedUSD)
}

func (g *Gateway) recordAuditEvent(ctx context.Context, req Request, result *llm.ProviderResult, fallbackUsed bool, fallbackReason string, elapsed time.Duration, callErr error) {
	if g.store == nil {
		return
	}
	fields := map[string]any{
		"event_id":        uuid.NewString(),
		"model":           req.Model,
		"fallback_used":   fallbackUsed,
		"fallback_reason": fallbackReason,
		"duration_ms":     elapsed.Milliseconds(),
	}
	if callErr != nil {
		fields["error"] = callErr.Error()
	}
	if result != nil {
		fields["tokens_used"] = int(result.TokenCount)
	}
	evt := artifact.AuditEvent{
		Kind:      "model_call",
		Message:   fmt.Sprintf("gateway call to %s", req.Model),
		Fields:    fields,
		Timestamp: time.Now(),
	}
	if _, err := g.store.PutArtifact(evt, artifact.Metadata{ArtifactType: artifact.TypeAuditEvent, ProducerComponent: "gateway"}); err != nil {
		g.logger.Warn("gateway: failed to persist audit_event: %v", err)
	}
}
