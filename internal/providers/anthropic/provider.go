// Package anthropic provides the Anthropic API provider implementation.
// It exists because the Verification Agent needs an adversarial
// re-check from a different model family than whatever analyzed the
// document, and no other provider package here covers Anthropic.
//
// Built the same way steveyegge-vc's internal/repl/conversation.go
// drives the Anthropic SDK: the same
// anthropic.NewClient/Messages.New/ToolUnionParam/ToolUseBlock flow,
// adapted from a REPL's free-running tool loop into a single forced
// tool call per GenerateContent, matching llm.LLMClient's one-shot
// contract.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/discernus/discernus-core/internal/apikey"
	"github.com/discernus/discernus-core/internal/llm"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/providers"
	"github.com/discernus/discernus-core/internal/toolschema"
)

// Provider implements providers.Provider for Anthropic models.
type Provider struct {
	logger logutil.LoggerInterface
}

// NewProvider creates a new Anthropic provider.
func NewProvider(logger logutil.LoggerInterface) providers.Provider {
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[anthropic-provider] ")
	}
	return &Provider{logger: logger}
}

// CreateClient implements providers.Provider.
func (p *Provider) CreateClient(ctx context.Context, apiKeyParam, modelID, apiEndpoint string) (llm.LLMClient, error) {
	resolver := apikey.NewAPIKeyResolver(p.logger)
	keyResult, err := resolver.ResolveAPIKey(ctx, "anthropic", apiKeyParam)
	if err != nil {
		return nil, err
	}
	if err := resolver.ValidateAPIKey(ctx, "anthropic", keyResult.Key); err != nil {
		return nil, fmt.Errorf("invalid API key: %w", err)
	}

	opts := []option.RequestOption{option.WithAPIKey(keyResult.Key)}
	if apiEndpoint != "" {
		opts = append(opts, option.WithBaseURL(apiEndpoint))
	}
	client := anthropic.NewClient(opts...)

	return &Client{client: &client, model: modelID, logger: p.logger}, nil
}

// Client implements llm.LLMClient against the Anthropic Messages API,
// forcing a single tool call when params carries a "tool_schema".
type Client struct {
	client *anthropic.Client
	model  string
	logger logutil.LoggerInterface
}

// GenerateContent sends prompt as a single user turn. If params["tool_schema"]
// is a toolschema.Schema, the model is forced to call it and the result's
// ToolCallName/ToolCallArgs are populated; otherwise the model answers in
// prose and Content carries the text.
func (c *Client) GenerateContent(ctx context.Context, prompt string, params map[string]interface{}) (*llm.ProviderResult, error) {
	maxTokens := int64(4096)
	if v, ok := params["max_tokens"]; ok {
		if n, ok := toInt64(v); ok {
			maxTokens = n
		}
	}

	reqParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var forcedToolName string
	if schema, ok := params["tool_schema"].(toolschema.Schema); ok {
		tool := anthropic.ToolParam{
			Name:        schema.Name,
			Description: anthropic.String(schema.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Parameters["properties"],
				Required:   toStringSlice(schema.Parameters["required"]),
			},
		}
		reqParams.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
		reqParams.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: schema.Name},
		}
		forcedToolName = schema.Name
	}

	resp, err := c.client.Messages.New(ctx, reqParams)
	if err != nil {
		category := llm.GetErrorCategoryFromMessage(err.Error())
		return nil, llm.Wrap(err, "anthropic", "anthropic: message generation failed", category)
	}

	result := &llm.ProviderResult{
		FinishReason: string(resp.StopReason),
		TokenCount:   int32(resp.Usage.OutputTokens),
	}

	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Content += variant.Text
		case anthropic.ToolUseBlock:
			if forcedToolName != "" && variant.Name == forcedToolName {
				var args map[string]any
				if err := json.Unmarshal(variant.Input, &args); err == nil {
					result.ToolCallName = variant.Name
					result.ToolCallArgs = args
				}
			}
		}
	}

	return result, nil
}

// CountTokens is a length-based estimate; Anthropic does not expose a
// free-standing tokenizer endpoint on this SDK version.
func (c *Client) CountTokens(ctx context.Context, prompt string) (*llm.ProviderTokenCount, error) {
	return &llm.ProviderTokenCount{Total: int32(len(prompt) / 4)}, nil
}

// GetModelInfo returns static, conservative limits; Anthropic's client
// library does not expose a models-info call this adapter can use.
func (c *Client) GetModelInfo(ctx context.Context) (*llm.ProviderModelInfo, error) {
	return &llm.ProviderModelInfo{
		Name:             c.model,
		InputTokenLimit:  200000,
		OutputTokenLimit: 8192,
	}, nil
}

// GetModelName implements llm.LLMClient.
func (c *Client) GetModelName() string { return c.model }

// Close implements llm.LLMClient; the Anthropic SDK client owns no
// resources that need explicit release.
func (c *Client) Close() error { return nil }

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]string)
	if ok {
		return raw
	}
	anySlice, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(anySlice))
	for _, e := range anySlice {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
