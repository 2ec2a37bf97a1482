// Package verification implements the Verification Agent (spec.md 4.7):
// given a paired analysis_result and work artifact, it re-executes the
// analysis's claimed code through a different model family than the one
// that produced the analysis, and records the outcome as an attestation
// artifact. A failed attestation is fatal to the pipeline — the
// orchestrator aborts rather than continuing past it.
//
// Grounded on internal/analysis's Gateway-call-then-persist shape,
// adapted for adversarial re-execution instead of first-pass scoring,
// and on steveyegge-vc's Anthropic tool-forcing pattern for the actual
// verifier call (internal/providers/anthropic).
package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/gateway"
	"github.com/discernus/discernus-core/internal/llm"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/prompt"
	"github.com/discernus/discernus-core/internal/respparse"
	"github.com/discernus/discernus-core/internal/toolschema"
)

// ToleranceRelative is the relative numeric tolerance (spec.md 4.7's
// "implementer's choice") applied when comparing a verifier's
// re-executed metrics against the analysis's claimed ones.
const ToleranceRelative = 0.05

// ErrVerificationFailed is the sentinel error surfaced to the
// orchestrator on attestation failure, which must abort the pipeline.
var ErrVerificationFailed = fmt.Errorf("verification: attestation failed")

// Outcome is what Verify hands back for one analysis/work pair.
type Outcome struct {
	AttestationHash string
	Success         bool
	Reasoning       string
}

// Agent is the Verification Agent.
type Agent struct {
	gateway       *gateway.Gateway
	store         *cas.Store
	prompts       *prompt.Manager
	logger        logutil.LoggerInterface
	verifierModel string // must be a different model family than the analysis model
}

// NewAgent builds a Verification Agent bound to verifierModel, the model
// called for every re-execution regardless of which model produced the
// analysis under check.
func NewAgent(gw *gateway.Gateway, store *cas.Store, prompts *prompt.Manager, logger logutil.LoggerInterface, verifierModel string) *Agent {
	return &Agent{gateway: gw, store: store, prompts: prompts, logger: logger, verifierModel: verifierModel}
}

type toolPayload struct {
	Success           bool               `json:"success"`
	Reasoning         string             `json:"reasoning"`
	ReExecutionOutput string             `json:"re_execution_output"`
	ReExecutedMetrics map[string]float64 `json:"re_executed_metrics"`
}

// Verify loads the analysis_result and work artifacts at analysisHash
// and workHash, has the verifier model independently re-execute the
// claimed code, and persists an attestation. If the verifier reports
// success but its re-executed metrics diverge from the analysis's
// derived metrics by more than ToleranceRelative, the attestation is
// downgraded to a failure locally — the verifier's own judgment is not
// trusted blindly for the one thing this package can check itself.
func (a *Agent) Verify(ctx context.Context, analysisHash, workHash string) (*Outcome, error) {
	analysisBytes, _, err := a.store.Get(analysisHash)
	if err != nil {
		return nil, fmt.Errorf("verification: load analysis_result %s: %w", analysisHash, err)
	}
	var result artifact.AnalysisResult
	if err := json.Unmarshal(analysisBytes, &result); err != nil {
		return nil, fmt.Errorf("verification: decode analysis_result %s: %w", analysisHash, err)
	}

	workBytes, _, err := a.store.Get(workHash)
	if err != nil {
		return nil, fmt.Errorf("verification: load work %s: %w", workHash, err)
	}
	var work artifact.Work
	if err := json.Unmarshal(workBytes, &work); err != nil {
		return nil, fmt.Errorf("verification: decode work %s: %w", workHash, err)
	}

	scoresJSON, _ := json.Marshal(result.Scores)
	data := prompt.NewTemplateData().
		Set("claimed_code", work.Code).
		Set("claimed_output", work.ClaimedOutput).
		Set("claimed_metrics", string(scoresJSON))
	renderedPrompt, err := a.prompts.BuildPrompt("verification.tmpl", data)
	if err != nil {
		return nil, llm.Wrap(err, "", "verification: failed to render prompt", llm.CategoryInvalidRequest)
	}

	resp, err := a.gateway.Call(ctx, gateway.Request{
		Model:  a.verifierModel,
		Prompt: renderedPrompt,
		Params: map[string]any{"tool_schema": toolschema.RecordAttestation},
	})
	if err != nil {
		return nil, fmt.Errorf("verification: %s: %w", analysisHash, err)
	}

	payload, err := decodePayload(resp.Result)
	if err != nil {
		return nil, llm.Wrap(err, "", fmt.Sprintf("verification: %s: could not recover structured output", analysisHash), llm.CategoryInvalidRequest)
	}

	success := payload.Success && withinTolerance(result.DerivedMetrics, payload.ReExecutedMetrics, ToleranceRelative)
	reasoning := payload.Reasoning
	if payload.Success && !success {
		reasoning = fmt.Sprintf("%s (downgraded: re-executed metrics exceed %.0f%% tolerance of claimed metrics)", reasoning, ToleranceRelative*100)
	}

	attestation := artifact.Attestation{
		TargetAnalysisHash: analysisHash,
		TargetWorkHash:     workHash,
		Success:            success,
		VerifierModel:      a.verifierModel,
		Reasoning:          reasoning,
		ReExecutionOutput:  payload.ReExecutionOutput,
		ReExecutedMetrics:  payload.ReExecutedMetrics,
		ToleranceApplied:   ToleranceRelative,
	}

	attestationHash, err := a.store.PutArtifact(attestation, artifact.Metadata{
		ArtifactType:      artifact.TypeAttestation,
		ProducerComponent: "verification",
		ProducerModel:     a.verifierModel,
		Parents:           []string{analysisHash, workHash},
	})
	if err != nil {
		return nil, fmt.Errorf("verification: persist attestation: %w", err)
	}

	if !success {
		a.logger.ErrorContext(ctx, "verification: attestation failed for analysis %s: %s", analysisHash, reasoning)
		return &Outcome{AttestationHash: attestationHash, Success: false, Reasoning: reasoning}, ErrVerificationFailed
	}

	a.logger.InfoContext(ctx, "verification: attestation succeeded for analysis %s", analysisHash)
	return &Outcome{AttestationHash: attestationHash, Success: true, Reasoning: reasoning}, nil
}

// withinTolerance reports whether every claimed metric has a matching
// re-executed metric within relTol of it. A verifier that omits
// re_executed_metrics entirely (the schema only requires success and
// reasoning) is treated as passing this check — it is only a local
// backstop over verifiers that do report numbers.
func withinTolerance(claimed, reExecuted map[string]float64, relTol float64) bool {
	if len(reExecuted) == 0 {
		return true
	}
	for name, want := range claimed {
		got, ok := reExecuted[name]
		if !ok {
			continue
		}
		if want == 0 {
			if math.Abs(got) > relTol {
				return false
			}
			continue
		}
		if math.Abs(got-want)/math.Abs(want) > relTol {
			return false
		}
	}
	return true
}

func decodePayload(result *llm.ProviderResult) (toolPayload, error) {
	var args map[string]any
	if result.ToolCallName == toolschema.RecordAttestation.Name {
		args = result.ToolCallArgs
	} else {
		parsed, _, err := respparse.Parse(result.Content)
		if err != nil {
			return toolPayload{}, err
		}
		args = parsed
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return toolPayload{}, fmt.Errorf("verification: cannot re-encode tool arguments: %w", err)
	}
	var payload toolPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return toolPayload{}, fmt.Errorf("verification: cannot decode tool arguments: %w", err)
	}
	return payload, nil
}
