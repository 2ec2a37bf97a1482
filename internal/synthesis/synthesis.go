// Package synthesis implements the Sequential Synthesis Agent (spec.md
// 4.10): a fixed five-stage RAG pipeline over a completed experiment's
// analysis results, each stage one Gateway call preceded by a
// generate_queries tool call and an evidence-budgeted Knowledge Index
// retrieval.
//
// Each stage consumes the prior stages' outputs, folding them into the
// next prompt the way a single free-text synthesis pass would fold
// per-model outputs into one prompt, but individually audited and
// strictly sequential rather than a single call.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/gateway"
	"github.com/discernus/discernus-core/internal/knowledge"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/prompt"
	"github.com/discernus/discernus-core/internal/respparse"
	"github.com/discernus/discernus-core/internal/toolschema"
)

// Stage names, in the fixed execution order spec.md 4.10 mandates.
const (
	StageHypothesisTesting     = "hypothesis_testing"
	StageAnomalyInvestigation  = "anomaly_investigation"
	StagePatternDiscovery      = "pattern_discovery"
	StageFrameworkFit          = "framework_fit_assessment"
	StageFinalIntegration      = "final_integration"
)

var stageOrder = []string{
	StageHypothesisTesting,
	StageAnomalyInvestigation,
	StagePatternDiscovery,
	StageFrameworkFit,
	StageFinalIntegration,
}

// evidenceTokenBudget caps the evidence text folded into one stage's
// prompt, estimated at len/4 characters-per-token the way the rest of
// the core approximates token counts without a tokenizer call.
const evidenceTokenBudget = 4000

const truncationSentinel = "[additional evidence omitted]"

// Agent is the Sequential Synthesis Agent.
type Agent struct {
	gateway *gateway.Gateway
	store   *cas.Store
	prompts *prompt.Manager
	index   *knowledge.Index
	logger  logutil.LoggerInterface
	model   string
}

// NewAgent builds a Sequential Synthesis Agent over a built Knowledge
// Index.
func NewAgent(gw *gateway.Gateway, store *cas.Store, prompts *prompt.Manager, index *knowledge.Index, model string, logger logutil.LoggerInterface) *Agent {
	return &Agent{gateway: gw, store: store, prompts: prompts, index: index, model: model, logger: logger}
}

// stageResult is one completed stage: its artifact hash and output text,
// threaded into every later stage's "prior stage outputs" slot.
type stageResult struct {
	stage       string
	artifactHash string
	output      string
}

// Run executes all five stages in order and returns the persisted
// final_report artifact's hash.
func (a *Agent) Run(ctx context.Context, config artifact.ExperimentConfig, statsHash string, parents []string) (string, error) {
	var completed []stageResult

	for _, stage := range stageOrder {
		result, err := a.runStage(ctx, stage, config, statsHash, completed)
		if err != nil {
			return "", fmt.Errorf("synthesis: stage %s: %w", stage, err)
		}
		completed = append(completed, *result)
	}

	var referenced []string
	for _, r := range completed {
		referenced = append(referenced, r.artifactHash)
	}
	referenced = append(referenced, parents...)

	report := artifact.FinalReport{
		Narrative:          completed[len(completed)-1].output,
		ReferencedAnalyses: referenced,
	}
	reportHash, err := a.store.PutArtifact(report, artifact.Metadata{
		ArtifactType:      artifact.TypeFinalReport,
		ProducerComponent: "synthesis",
		ProducerModel:     a.model,
		Parents:           referenced,
	})
	if err != nil {
		return "", fmt.Errorf("synthesis: persist final_report: %w", err)
	}

	a.logger.InfoContext(ctx, "synthesis: final report %s over %d stages", reportHash, len(completed))
	return reportHash, nil
}

func (a *Agent) runStage(ctx context.Context, stage string, config artifact.ExperimentConfig, statsHash string, prior []stageResult) (*stageResult, error) {
	queries, err := a.generateQueries(ctx, stage, config, prior)
	if err != nil {
		return nil, fmt.Errorf("generate queries: %w", err)
	}

	hits := a.retrieveEvidence(ctx, stage, queries)
	evidenceText, _ := a.renderEvidence(hits)

	output, err := a.callStage(ctx, stage, config, evidenceText, prior)
	if err != nil {
		return nil, err
	}

	var hallucinated bool
	if quote, ok := extractQuotedSpan(output); ok {
		validation := a.index.ValidateQuote(quote)
		if validation.DriftLevel == knowledge.DriftHallucination {
			output, err = a.callStage(ctx, stage, config, evidenceText+"\n\nCorrection: the quote \""+quote+
				"\" is not found in any corpus text retrievable from the Knowledge Index. Cite only quotes you can verify.", prior)
			if err != nil {
				return nil, err
			}
			if quote2, ok := extractQuotedSpan(output); ok {
				if a.index.ValidateQuote(quote2).DriftLevel == knowledge.DriftHallucination {
					hallucinated = true
				}
			}
		}
	}

	retrievalHashes := make([]string, 0, len(hits))
	for _, h := range hits {
		retrievalHashes = append(retrievalHashes, h.SourceArtifact)
	}

	step := artifact.SynthesisStep{
		Stage:                   stage,
		Queries:                 queries,
		RetrievalHashes:         retrievalHashes,
		Output:                  output,
		HallucinationUnresolved: hallucinated,
	}
	stepHash, err := a.store.PutArtifact(step, artifact.Metadata{
		ArtifactType:      artifact.TypeSynthesisStep,
		ProducerComponent: "synthesis",
		ProducerModel:     a.model,
		Parents:           append([]string{statsHash}, retrievalHashes...),
		CustomFields:      map[string]any{"stage": stage},
	})
	if err != nil {
		return nil, fmt.Errorf("persist synthesis_step: %w", err)
	}

	if hallucinated {
		a.logger.WarnContext(ctx, "synthesis: stage %s has an unresolved hallucinated quote (step %s)", stage, stepHash)
	}

	return &stageResult{stage: stage, artifactHash: stepHash, output: output}, nil
}

// generateQueries forces the generate_queries tool call for one stage.
func (a *Agent) generateQueries(ctx context.Context, stage string, config artifact.ExperimentConfig, prior []stageResult) ([]string, error) {
	data := prompt.NewTemplateData().
		Set("stage_name", stage).
		Set("hypothesis", hypothesesText(config)).
		Set("evidence", "(not yet retrieved for this stage)").
		Set("prior_stages", priorStagesText(prior))
	renderedPrompt, err := a.prompts.BuildPrompt("synthesis_stage.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	resp, err := a.gateway.Call(ctx, gateway.Request{
		Model:  a.model,
		Prompt: renderedPrompt,
		Params: map[string]any{"tool_schema": toolschema.GenerateQueries},
	})
	if err != nil {
		return nil, err
	}

	var args map[string]any
	if resp.Result.ToolCallName == toolschema.GenerateQueries.Name {
		args = resp.Result.ToolCallArgs
	} else {
		parsed, _, err := respparse.Parse(resp.Result.Content)
		if err != nil {
			return nil, fmt.Errorf("recover queries: %w", err)
		}
		args = parsed
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode queries: %w", err)
	}
	if len(payload.Queries) == 0 {
		return nil, fmt.Errorf("model returned no queries")
	}
	return payload.Queries, nil
}

// retrieveEvidence queries the Knowledge Index once per generated query,
// failing open (an empty hit set, never an error) per spec.md 4.9.
func (a *Agent) retrieveEvidence(ctx context.Context, stage string, queries []string) []knowledge.Hit {
	const perQueryLimit = 5
	var all []knowledge.Hit
	for _, q := range queries {
		hits, err := a.index.Query(ctx, q, nil, "", perQueryLimit)
		if err != nil {
			a.logger.WarnContext(ctx, "synthesis: stage %s query %q failed: %v", stage, q, err)
			continue
		}
		all = append(all, hits...)
	}
	return all
}

// renderEvidence joins retrieved hits into one evidence block, hard
// capped at evidenceTokenBudget estimated tokens.
func (a *Agent) renderEvidence(hits []knowledge.Hit) (text string, truncated bool) {
	var b strings.Builder
	budgetChars := evidenceTokenBudget * 4
	for _, h := range hits {
		line := fmt.Sprintf("[%s] %s\n", h.DataType, h.Content)
		if b.Len()+len(line) > budgetChars {
			b.WriteString(truncationSentinel)
			return b.String(), true
		}
		b.WriteString(line)
	}
	if b.Len() == 0 {
		return "(no evidence retrieved for this stage)", false
	}
	return b.String(), false
}

func (a *Agent) callStage(ctx context.Context, stage string, config artifact.ExperimentConfig, evidenceText string, prior []stageResult) (string, error) {
	data := prompt.NewTemplateData().
		Set("stage_name", stage).
		Set("hypothesis", hypothesesText(config)).
		Set("evidence", evidenceText).
		Set("prior_stages", priorStagesText(prior))
	renderedPrompt, err := a.prompts.BuildPrompt("synthesis_stage.tmpl", data)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	resp, err := a.gateway.Call(ctx, gateway.Request{Model: a.model, Prompt: renderedPrompt})
	if err != nil {
		return "", err
	}
	return resp.Result.Content, nil
}

func hypothesesText(config artifact.ExperimentConfig) string {
	if len(config.Hypotheses) == 0 {
		return "(no hypotheses declared for this experiment)"
	}
	var b strings.Builder
	for _, h := range config.Hypotheses {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Statement)
	}
	return b.String()
}

func priorStagesText(prior []stageResult) string {
	if len(prior) == 0 {
		return "(this is the first stage)"
	}
	var b strings.Builder
	for _, r := range prior {
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", r.stage, r.output)
	}
	return b.String()
}

// extractQuotedSpan returns the first double-quoted span in text, the
// heuristic spec.md 4.10's hallucination check validates against the
// Knowledge Index.
func extractQuotedSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(text[start+1:], '"')
	if end < 0 {
		return "", false
	}
	quote := text[start+1 : start+1+end]
	if len(quote) < 8 {
		return "", false
	}
	return quote, true
}
