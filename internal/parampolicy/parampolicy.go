// Package parampolicy implements the Provider Parameter Manager
// (spec.md 4.2): a static, per-provider policy of forbidden, required,
// and default call parameters, applied before every Gateway call.
//
// Grounded on internal/registry's provider/model definitions (the
// provider tag and timeout fields already live there) and on
// internal/providers/openai's OpenAIClientAdapter, whose SetParameters
// does the same allow/deny-by-type dance per call — this package lifts
// that pattern out of one provider adapter into a single, inspectable,
// provider-keyed table every adapter consults.
package parampolicy

import (
	"strings"

	"github.com/discernus/discernus-core/internal/logutil"
)

// Policy is the static parameter-cleaning rule for one provider tag.
type Policy struct {
	ForbiddenParams []string
	RequiredParams  map[string]any
	DefaultParams   map[string]any
	TimeoutSeconds  int
}

// Manager resolves a provider tag from a model name prefix and applies
// its Policy to caller-supplied parameters.
type Manager struct {
	policies map[string]Policy
	logger   logutil.LoggerInterface
}

// NewManager builds a Manager with Discernus's known-provider policies.
// These mirror the empirically painful parameter quirks the base layout's
// per-provider adapters (internal/providers/openai, internal/providers/gemini,
// internal/providers/openrouter) work around one call site at a time.
func NewManager(logger logutil.LoggerInterface) *Manager {
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[parampolicy] ")
	}
	return &Manager{
		logger: logger,
		policies: map[string]Policy{
			"vertex_ai": {
				ForbiddenParams: []string{"logprobs", "best_of"},
				RequiredParams:  map[string]any{"candidate_count": 1},
				DefaultParams:   map[string]any{"temperature": 0.2},
				TimeoutSeconds:  120,
			},
			"openai": {
				ForbiddenParams: []string{"top_k"},
				RequiredParams:  map[string]any{},
				DefaultParams:   map[string]any{"temperature": 0.2},
				TimeoutSeconds:  90,
			},
			"anthropic": {
				ForbiddenParams: []string{"logprobs", "presence_penalty", "frequency_penalty"},
				RequiredParams:  map[string]any{},
				DefaultParams:   map[string]any{"max_tokens": 4096},
				TimeoutSeconds:  120,
			},
			"mistral": {
				ForbiddenParams: []string{"logprobs"},
				RequiredParams:  map[string]any{},
				DefaultParams:   map[string]any{"temperature": 0.2},
				TimeoutSeconds:  90,
			},
			"ollama": {
				ForbiddenParams: []string{"logprobs", "best_of", "presence_penalty"},
				RequiredParams:  map[string]any{},
				DefaultParams:   map[string]any{"temperature": 0.2},
				TimeoutSeconds:  300,
			},
			"openrouter": {
				ForbiddenParams: []string{"best_of"},
				RequiredParams:  map[string]any{},
				DefaultParams:   map[string]any{"temperature": 0.2},
				TimeoutSeconds:  120,
			},
		},
	}
}

// ProviderForModel resolves a provider tag from a "provider/model" style
// model name, e.g. "vertex_ai/gemini-1.5-pro" -> "vertex_ai". A bare model
// name with no prefix resolves to "openai", matching the base layout's
// default-provider convention.
func ProviderForModel(model string) string {
	if idx := strings.Index(model, "/"); idx > 0 {
		return model[:idx]
	}
	return "openai"
}

// PolicyFor returns the policy for a provider tag, or a permissive
// zero-value policy if the provider is unknown (forbidding nothing,
// requiring nothing, defaulting nothing).
func (m *Manager) PolicyFor(provider string) Policy {
	if p, ok := m.policies[provider]; ok {
		return p
	}
	return Policy{TimeoutSeconds: 60}
}

// Clean resolves the provider from model via the "provider/model" prefix
// convention, then applies default -> caller-without-forbidden ->
// required. Callers that already know the authoritative provider tag
// (e.g. from a registry lookup, where model may be a flat alias with no
// prefix) should call CleanForProvider instead.
func (m *Manager) Clean(model string, caller map[string]any) map[string]any {
	return m.CleanForProvider(ProviderForModel(model), caller)
}

// CleanForProvider applies default -> caller-without-forbidden ->
// required for an explicitly given provider tag, logging every
// parameter it strips or overrides.
func (m *Manager) CleanForProvider(provider string, caller map[string]any) map[string]any {
	policy := m.PolicyFor(provider)

	clean := make(map[string]any, len(policy.DefaultParams)+len(caller))
	for k, v := range policy.DefaultParams {
		clean[k] = v
	}

	forbidden := make(map[string]bool, len(policy.ForbiddenParams))
	for _, f := range policy.ForbiddenParams {
		forbidden[f] = true
	}

	for k, v := range caller {
		if forbidden[k] {
			m.logger.Warn("parampolicy: stripped forbidden parameter %q for provider %q", k, provider)
			continue
		}
		if _, wasDefault := policy.DefaultParams[k]; wasDefault {
			m.logger.Debug("parampolicy: overriding default parameter %q with caller value for provider %q", k, provider)
		}
		clean[k] = v
	}

	for k, v := range policy.RequiredParams {
		if existing, ok := clean[k]; ok && existing != v {
			m.logger.Warn("parampolicy: overriding caller value for required parameter %q for provider %q", k, provider)
		}
		clean[k] = v
	}

	return clean
}
