// Package analysis implements the Analysis Agent (spec.md 4.6): given a
// framework, a single corpus document, and a target model, it produces
// one analysis_result artifact and one work artifact. Documents are
// always processed individually — batch-scoring multiple documents in
// one call is the source system's known regression and is not exposed
// anywhere in this package's API.
//
// Follows an init-client/generate/log-audit/handle-error shape: a
// Gateway call forcing the record_analysis_with_work tool schema, with
// a cache lookup before the call and two CAS artifact writes after it.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/gateway"
	"github.com/discernus/discernus-core/internal/llm"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/prompt"
	"github.com/discernus/discernus-core/internal/respparse"
	"github.com/discernus/discernus-core/internal/toolschema"
)

// Outcome is what AnalyzeDocument hands back for one document.
type Outcome struct {
	DocumentID     string
	AnalysisHash   string
	WorkHash       string
	BatchID        string
	CacheHit       bool
	FallbackUsed   bool
	FallbackReason string
}

// Agent is the Analysis Agent.
type Agent struct {
	gateway *gateway.Gateway
	store   *cas.Store
	prompts *prompt.Manager
	logger  logutil.LoggerInterface
}

// NewAgent builds an Analysis Agent.
func NewAgent(gw *gateway.Gateway, store *cas.Store, prompts *prompt.Manager, logger logutil.LoggerInterface) *Agent {
	return &Agent{gateway: gw, store: store, prompts: prompts, logger: logger}
}

// BatchID computes the deterministic cache key for one
// (framework, document, model) triple.
func BatchID(frameworkHash, docHash, model string) string {
	sum := sha256.Sum256([]byte(frameworkHash + "\x00" + docHash + "\x00" + model))
	return hex.EncodeToString(sum[:])
}

// toolPayload mirrors toolschema.RecordAnalysisWithWork's shape. Its
// field types are exactly artifact.DimensionScore and artifact.Evidence
// so a tool-call args map (or a respparse fallback map) decodes straight
// into the artifact payloads with no intermediate translation.
type toolPayload struct {
	Scores         map[string]artifact.DimensionScore `json:"scores"`
	DerivedMetrics map[string]float64                 `json:"derived_metrics"`
	Evidence       []artifact.Evidence                `json:"evidence"`
	Code           string                              `json:"code"`
	ClaimedOutput  string                              `json:"claimed_output"`
}

// AnalyzeDocument runs the Analysis Agent's algorithm for one document
// against one model, reusing a cached analysis_result for the same
// (framework, document, model) triple when one already exists in CAS.
func (a *Agent) AnalyzeDocument(ctx context.Context, framework artifact.FrameworkSpec, frameworkHash string, doc artifact.CorpusDocument, docHash, model string) (*Outcome, error) {
	batchID := BatchID(frameworkHash, docHash, model)

	if cached, ok := a.lookupCached(batchID); ok {
		a.logger.InfoContext(ctx, "analysis: cache hit for document %s, model %s, batch %s", doc.DocumentID, model, batchID)
		return cached, nil
	}

	data := prompt.NewTemplateData().
		Set("framework", framework.Name+" v"+framework.Version).
		Set("document_b64", prompt.EncodeDocument([]byte(doc.Text)))
	renderedPrompt, err := a.prompts.BuildPrompt("analysis.tmpl", data)
	if err != nil {
		return nil, llm.Wrap(err, "", fmt.Sprintf("analysis: failed to render prompt for document %s", doc.DocumentID), llm.CategoryInvalidRequest)
	}

	resp, err := a.gateway.Call(ctx, gateway.Request{
		Model:  model,
		Prompt: renderedPrompt,
		Params: map[string]any{"tool_schema": toolschema.RecordAnalysisWithWork},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: document %s: %w", doc.DocumentID, err)
	}

	payload, err := decodePayload(resp.Result)
	if err != nil {
		return nil, llm.Wrap(err, "", fmt.Sprintf("analysis: document %s: could not recover structured output", doc.DocumentID), llm.CategoryInvalidRequest)
	}

	if problems := validateScores(payload.Scores); len(problems) > 0 {
		a.logger.WarnContext(ctx, "analysis: document %s scores out of range: %v", doc.DocumentID, problems)
	}

	result := artifact.AnalysisResult{
		DocumentID:     doc.DocumentID,
		DocumentHash:   docHash,
		FrameworkHash:  frameworkHash,
		Model:          model,
		BatchID:        batchID,
		Scores:         payload.Scores,
		DerivedMetrics: payload.DerivedMetrics,
		Evidence:       payload.Evidence,
		FallbackUsed:   fallbackModelName(resp),
		FallbackReason: resp.FallbackReason,
	}
	work := artifact.Work{Code: payload.Code, ClaimedOutput: payload.ClaimedOutput}

	workHash, err := a.store.PutArtifact(work, artifact.Metadata{
		ArtifactType:      artifact.TypeWork,
		ProducerComponent: "analysis",
		ProducerModel:     model,
		Parents:           []string{frameworkHash, docHash},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: document %s: persist work artifact: %w", doc.DocumentID, err)
	}

	analysisHash, err := a.store.PutArtifact(result, artifact.Metadata{
		ArtifactType:      artifact.TypeAnalysisResult,
		ProducerComponent: "analysis",
		ProducerModel:     model,
		Parents:           []string{frameworkHash, docHash, workHash},
		CustomFields:      map[string]any{"batch_id": batchID},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: document %s: persist analysis_result artifact: %w", doc.DocumentID, err)
	}

	a.logger.InfoContext(ctx, "analysis: document %s scored with model %s (tokens=%d, parse_strategy=%s)",
		doc.DocumentID, model, resp.Result.TokenCount, resp.ParseStrategy)

	return &Outcome{
		DocumentID:     doc.DocumentID,
		AnalysisHash:   analysisHash,
		WorkHash:       workHash,
		BatchID:        batchID,
		FallbackUsed:   resp.FallbackUsed,
		FallbackReason: resp.FallbackReason,
	}, nil
}

// lookupCached finds a previously stored analysis_result for batchID and
// reconstructs an Outcome from it, re-deriving the work hash from its
// recorded parents so downstream counting sees the same artifact pair a
// fresh call would have produced.
func (a *Agent) lookupCached(batchID string) (*Outcome, bool) {
	ids := a.store.List(cas.ByType(artifact.TypeAnalysisResult))
	for _, id := range ids {
		content, meta, err := a.store.Get(id)
		if err != nil {
			continue
		}
		if bid, ok := meta.CustomFields["batch_id"].(string); !ok || bid != batchID {
			continue
		}
		var result artifact.AnalysisResult
		if err := json.Unmarshal(content, &result); err != nil {
			continue
		}
		workHash := ""
		if len(meta.Parents) > 0 {
			workHash = meta.Parents[len(meta.Parents)-1]
		}
		return &Outcome{
			DocumentID:   result.DocumentID,
			AnalysisHash: id,
			WorkHash:     workHash,
			BatchID:      batchID,
			CacheHit:     true,
			FallbackUsed: result.FallbackUsed != "",
		}, true
	}
	return nil, false
}

// decodePayload recovers the tool-call's structured arguments, falling
// back to internal/respparse when the provider answered in prose instead
// of honoring the forced tool call (result.ToolCallName == "").
func decodePayload(result *llm.ProviderResult) (toolPayload, error) {
	var args map[string]any
	if result.ToolCallName == toolschema.RecordAnalysisWithWork.Name {
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
		return toolPayload{}, fmt.Errorf("analysis: cannot re-encode tool arguments: %w", err)
	}
	var payload toolPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return toolPayload{}, fmt.Errorf("analysis: cannot decode tool arguments: %w", err)
	}
	return payload, nil
}

func validateScores(scores map[string]artifact.DimensionScore) []string {
	var problems []string
	for dim, s := range scores {
		if s.Raw < 0 || s.Raw > 1 {
			problems = append(problems, fmt.Sprintf("%s.raw out of [0,1]", dim))
		}
		if s.Salience < 0 || s.Salience > 1 {
			problems = append(problems, fmt.Sprintf("%s.salience out of [0,1]", dim))
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			problems = append(problems, fmt.Sprintf("%s.confidence out of [0,1]", dim))
		}
	}
	return problems
}

func fallbackModelName(resp *gateway.Response) string {
	if !resp.FallbackUsed {
		return ""
	}
	return resp.ModelUsed
}
