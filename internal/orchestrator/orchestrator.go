// Package orchestrator implements the only stateful coordinator in the
// core. It binds the Transaction Integrity Manager, Analysis Agent,
// Verification Agent, Knowledge Index, Statistical Processor, and
// Sequential Synthesis Agent into one fixed, nine-step execution plan:
// a linear sequence of named phases, each wrapped in its own
// error-context, with a worker pool fanning out the per-(document,
// model) analysis-and-verification phase.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/discernus/discernus-core/internal/analysis"
	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/gateway"
	"github.com/discernus/discernus-core/internal/integrity"
	"github.com/discernus/discernus-core/internal/knowledge"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/prompt"
	"github.com/discernus/discernus-core/internal/stats"
	"github.com/discernus/discernus-core/internal/synthesis"
	"github.com/discernus/discernus-core/internal/verification"
)

// avgPromptChars approximates one analysis-plus-verification prompt
// pair's size for the Gateway's pre-flight cost estimate (spec.md 4.12
// step 3), before any document's actual prompt has been rendered.
const avgPromptChars = 4000

// Manifest is written at the end of every run (successful, aborted, or
// cancelled), mapping the run's terminal artifacts back to their
// parents (spec.md 4.12 step 9, spec.md 5 Rollback).
type Manifest struct {
	RunID         string            `json:"run_id"`
	Status        string            `json:"status"` // "completed", "aborted:<reason>", "cancelled"
	FrameworkHash string            `json:"framework_hash"`
	ConfigHash    string            `json:"config_hash"`
	AnalysisHashes []string         `json:"analysis_hashes"`
	AttestationHashes []string      `json:"attestation_hashes"`
	StatisticsHash string           `json:"statistics_hash,omitempty"`
	KnowledgeIndexID string         `json:"knowledge_index_id,omitempty"`
	FinalReportHash string          `json:"final_report_hash,omitempty"`
	LastSuccessfulHash string       `json:"last_successful_hash,omitempty"`
	FailedDocuments map[string]string `json:"failed_documents,omitempty"`
}

// Aborted is returned when the pipeline stops before producing a
// final_report, carrying the stage that stopped it and the
// Transaction Integrity Manager's remediation guidance where
// applicable.
type Aborted struct {
	Stage    string
	Reason   string
	Guidance []string
}

func (e *Aborted) Error() string {
	return fmt.Sprintf("orchestrator: aborted at stage %s: %s", e.Stage, e.Reason)
}

// Orchestrator binds every agent package into the fixed pipeline.
type Orchestrator struct {
	store      *cas.Store
	gateway    *gateway.Gateway
	prompts    *prompt.Manager
	logger     logutil.LoggerInterface
	verifierModel string
	synthesisModel string
	concurrency int
}

// New builds an Orchestrator. verifierModel is the model family every
// Verification Agent call uses, independent of which model produced
// the analysis under check (spec.md 4.7); synthesisModel is the model
// the Sequential Synthesis Agent calls at every stage.
func New(store *cas.Store, gw *gateway.Gateway, prompts *prompt.Manager, logger logutil.LoggerInterface, verifierModel, synthesisModel string) *Orchestrator {
	return &Orchestrator{
		store:          store,
		gateway:        gw,
		prompts:        prompts,
		logger:         logger,
		verifierModel:  verifierModel,
		synthesisModel: synthesisModel,
		concurrency:    4,
	}
}

// WithConcurrency overrides the default worker pool size for the
// (document, model) matrix, returning the Orchestrator for chaining.
func (o *Orchestrator) WithConcurrency(n int) *Orchestrator {
	if n > 0 {
		o.concurrency = n
	}
	return o
}

// Inputs is everything Run needs, already loaded from experiment_path
// by the caller (internal/config's loaders).
type Inputs struct {
	Framework artifact.FrameworkSpec
	Documents []artifact.CorpusDocument
	Config    artifact.ExperimentConfig
	ExpectedDocumentHashes map[string]string // document_id -> expected content hash, from the corpus manifest
}

// Run executes the full nine-step pipeline (spec.md 4.12) and returns
// the run's manifest. A non-nil error is always an *Aborted; Run never
// returns a bare error.
func (o *Orchestrator) Run(ctx context.Context, runID string, in Inputs) (*Manifest, error) {
	manifest := &Manifest{RunID: runID, FailedDocuments: map[string]string{}}

	// Step 1: hash framework, corpus, config.
	frameworkBytes, frameworkHash, err := artifact.Seal(in.Framework)
	if err != nil {
		return o.abort(manifest, "load", fmt.Sprintf("seal framework: %v", err), nil)
	}
	if _, err := o.store.Put(frameworkBytes, artifact.Metadata{ArtifactType: artifact.TypeFrameworkSpec, ProducerComponent: "orchestrator"}); err != nil {
		return o.abort(manifest, "load", fmt.Sprintf("persist framework: %v", err), nil)
	}
	manifest.FrameworkHash = frameworkHash

	configBytes, configHash, err := artifact.Seal(in.Config)
	if err != nil {
		return o.abort(manifest, "load", fmt.Sprintf("seal experiment config: %v", err), nil)
	}
	if _, err := o.store.Put(configBytes, artifact.Metadata{ArtifactType: artifact.TypeExperimentConfig, ProducerComponent: "orchestrator", Parents: []string{frameworkHash}}); err != nil {
		return o.abort(manifest, "load", fmt.Sprintf("persist experiment config: %v", err), nil)
	}
	manifest.ConfigHash = configHash
	manifest.LastSuccessfulHash = configHash

	docHashes := make(map[string]string, len(in.Documents))
	for _, doc := range in.Documents {
		id, err := o.store.PutArtifact(doc, artifact.Metadata{ArtifactType: artifact.TypeCorpusDocument, ProducerComponent: "orchestrator", Parents: []string{configHash}})
		if err != nil {
			return o.abort(manifest, "load", fmt.Sprintf("persist document %s: %v", doc.DocumentID, err), nil)
		}
		docHashes[doc.DocumentID] = id
	}

	// Step 2: framework + data pre-flight. The experiment config names
	// no explicit dimension set of its own (it references the
	// framework via FrameworkHash), so the only check possible here is
	// that the framework itself declares a usable dimension set.
	fwResult := integrity.CheckFramework(in.Framework, nil)
	if !fwResult.Valid {
		return o.abort(manifest, "transaction_integrity", "framework pre-flight failed", fwResult.Guidance)
	}
	dataResult := integrity.CheckData(o.store, in.Documents, in.ExpectedDocumentHashes)
	if !dataResult.Valid {
		return o.abort(manifest, "transaction_integrity", "data pre-flight failed", dataResult.Guidance)
	}
	for _, w := range dataResult.Warnings {
		o.logger.WarnContext(ctx, "orchestrator: data pre-flight warning for %s: %s", w.DocumentID, w.Message)
	}

	// Step 3: budget pre-flight.
	estimate := o.gateway.PreflightEstimate(in.Config.SelectedModels, len(in.Documents), avgPromptChars)
	if o.gateway.WouldExceedBudget(estimate) {
		return o.abort(manifest, "budget", fmt.Sprintf("estimated cost $%.2f exceeds the configured daily budget", estimate), nil)
	}

	// Step 4: per-(document, model) fan-out: Analysis then Verification.
	analysisAgent := analysis.NewAgent(o.gateway, o.store, o.prompts, o.logger)
	verificationAgent := verification.NewAgent(o.gateway, o.store, o.prompts, o.logger, o.verifierModel)

	results, analysisHashes, attestationHashes, err := o.runMatrix(ctx, analysisAgent, verificationAgent, in, frameworkHash, docHashes, manifest)
	if err != nil {
		var aborted *Aborted
		if ok := asAborted(err, &aborted); ok {
			return o.abort(manifest, aborted.Stage, aborted.Reason, aborted.Guidance)
		}
		return o.abort(manifest, "analysis_verification", err.Error(), nil)
	}
	manifest.AnalysisHashes = analysisHashes
	manifest.AttestationHashes = attestationHashes
	if len(analysisHashes) > 0 {
		manifest.LastSuccessfulHash = analysisHashes[len(analysisHashes)-1]
	}

	// Step 5: build the Knowledge Index over corpus + evidence.
	indexArtifactIDs := make([]string, 0, len(docHashes)+len(analysisHashes))
	for _, id := range docHashes {
		indexArtifactIDs = append(indexArtifactIDs, id)
	}
	indexArtifactIDs = append(indexArtifactIDs, analysisHashes...)
	indexBuilder := knowledge.NewBuilder(o.store, o.logger)
	index, err := indexBuilder.Build(ctx, runID, indexArtifactIDs)
	if err != nil {
		return o.abort(manifest, "knowledge_index", err.Error(), nil)
	}
	defer index.Close()
	manifest.KnowledgeIndexID = index.ID

	// Step 6: Statistical Processor over all analysis results.
	statsProcessor := stats.NewProcessor(o.store, o.logger)
	statsHash, err := statsProcessor.Process(ctx, results, analysisHashes)
	if err != nil {
		return o.abort(manifest, "statistics", err.Error(), nil)
	}
	manifest.StatisticsHash = statsHash
	manifest.LastSuccessfulHash = statsHash

	// Step 7: post-hoc quality pre-flight.
	thresholds := integrity.ResolveThresholds(in.Config.Thresholds)
	qualityResult := integrity.CheckQuality(thresholds, results, nil)
	if !qualityResult.Valid {
		return o.abort(manifest, "transaction_integrity", "post-hoc quality pre-flight failed", qualityResult.Guidance)
	}

	// Step 8: Sequential Synthesis.
	synthesisAgent := synthesis.NewAgent(o.gateway, o.store, o.prompts, index, o.synthesisModel, o.logger)
	reportHash, err := synthesisAgent.Run(ctx, in.Config, statsHash, append(append([]string{}, analysisHashes...), attestationHashes...))
	if err != nil {
		return o.abort(manifest, "synthesis", err.Error(), nil)
	}

	// Step 9: emit final_report, write the manifest.
	manifest.FinalReportHash = reportHash
	manifest.LastSuccessfulHash = reportHash
	manifest.Status = "completed"
	o.persistManifest(ctx, manifest)
	return manifest, nil
}

type matrixJob struct {
	doc   artifact.CorpusDocument
	model string
}

type matrixOutcome struct {
	job    matrixJob
	result *artifact.AnalysisResult
	analysisHash string
	attestationHash string
	verificationFailed bool
	err    error
}

// runMatrix submits every (document, model) pair to a worker pool.
// Analysis and Verification run back-to-back within one worker, per
// spec.md 5's ordering guarantee that analysis_result commits strictly
// before its attestation. A failed verification cancels the shared
// context so every other in-flight worker drains to its next
// quiescent point (spec.md 4.12's fail-fast), whereas a failed
// analysis only marks that one document and lets the run continue.
func (o *Orchestrator) runMatrix(ctx context.Context, analysisAgent *analysis.Agent, verificationAgent *verification.Agent, in Inputs, frameworkHash string, docHashes map[string]string, manifest *Manifest) ([]artifact.AnalysisResult, []string, []string, error) {
	jobs := make(chan matrixJob)
	outcomes := make(chan matrixOutcome)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < o.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				outcomes <- o.runOne(runCtx, analysisAgent, verificationAgent, in.Framework, frameworkHash, job, docHashes[job.doc.DocumentID])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, doc := range in.Documents {
			for _, model := range in.Config.SelectedModels {
				select {
				case jobs <- matrixJob{doc: doc, model: model}:
				case <-runCtx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var results []artifact.AnalysisResult
	var analysisHashes, attestationHashes []string
	var verificationErr *Aborted

	for outcome := range outcomes {
		if outcome.err != nil {
			manifest.FailedDocuments[outcome.job.doc.DocumentID] = outcome.err.Error()
			o.logger.WarnContext(ctx, "orchestrator: analysis failed for document %s, model %s: %v", outcome.job.doc.DocumentID, outcome.job.model, outcome.err)
			continue
		}
		if outcome.verificationFailed {
			if verificationErr == nil {
				verificationErr = &Aborted{Stage: "verification", Reason: fmt.Sprintf("attestation failed for document %s, model %s", outcome.job.doc.DocumentID, outcome.job.model)}
				cancel()
			}
			continue
		}
		results = append(results, *outcome.result)
		analysisHashes = append(analysisHashes, outcome.analysisHash)
		attestationHashes = append(attestationHashes, outcome.attestationHash)
	}

	if verificationErr != nil {
		return nil, nil, nil, verificationErr
	}
	if ctx.Err() != nil {
		return nil, nil, nil, &Aborted{Stage: "cancelled", Reason: ctx.Err().Error()}
	}
	return results, analysisHashes, attestationHashes, nil
}

func (o *Orchestrator) runOne(ctx context.Context, analysisAgent *analysis.Agent, verificationAgent *verification.Agent, framework artifact.FrameworkSpec, frameworkHash string, job matrixJob, docHash string) matrixOutcome {
	if ctx.Err() != nil {
		return matrixOutcome{job: job, err: ctx.Err()}
	}

	outcome, err := analysisAgent.AnalyzeDocument(ctx, framework, frameworkHash, job.doc, docHash, job.model)
	if err != nil {
		return matrixOutcome{job: job, err: err}
	}

	verifyOutcome, err := verificationAgent.Verify(ctx, outcome.AnalysisHash, outcome.WorkHash)
	if err != nil {
		return matrixOutcome{job: job, err: err}
	}
	if !verifyOutcome.Success {
		return matrixOutcome{job: job, verificationFailed: true}
	}

	content, _, err := o.store.Get(outcome.AnalysisHash)
	if err != nil {
		return matrixOutcome{job: job, err: err}
	}
	var result artifact.AnalysisResult
	if err := unmarshalArtifact(content, &result); err != nil {
		return matrixOutcome{job: job, err: err}
	}

	return matrixOutcome{
		job:             job,
		result:          &result,
		analysisHash:    outcome.AnalysisHash,
		attestationHash: verifyOutcome.AttestationHash,
	}
}

func unmarshalArtifact(content []byte, dst any) error {
	return json.Unmarshal(content, dst)
}

// asAborted reports whether err is an *Aborted, unwrapping it into dst
// the way errors.As does for standard error chains (runMatrix's
// verification-failure path returns one directly, never wrapped, but
// this keeps the check resilient to a future wrapping change).
func asAborted(err error, dst **Aborted) bool {
	return errors.As(err, dst)
}

func (o *Orchestrator) abort(manifest *Manifest, stage, reason string, guidance []string) (*Manifest, error) {
	manifest.Status = "aborted:" + stage
	o.persistManifest(context.Background(), manifest)
	return manifest, &Aborted{Stage: stage, Reason: reason, Guidance: guidance}
}

func (o *Orchestrator) persistManifest(ctx context.Context, manifest *Manifest) {
	if _, err := o.store.PutArtifact(*manifest, artifact.Metadata{
		ArtifactType:      artifact.TypeAuditEvent,
		ProducerComponent: "orchestrator",
		CustomFields:      map[string]any{"kind": "manifest", "run_id": manifest.RunID, "status": manifest.Status, "written_at": time.Now().UTC().Format(time.RFC3339)},
	}); err != nil {
		o.logger.WarnContext(ctx, "orchestrator: failed to persist manifest for run %s: %v", manifest.RunID, err)
	}
}
