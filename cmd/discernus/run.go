package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/discernus/discernus-core/internal/config"
	"github.com/discernus/discernus-core/internal/orchestrator"
)

var (
	runCASRoot string
	runBudget  float64
	runVerifierModel string
	runSynthesisModel string
)

var runCmd = &cobra.Command{
	Use:   "run <experiment_path>",
	Short: "Execute the full pipeline for an experiment directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runE,
}

func init() {
	runCmd.Flags().StringVar(&runCASRoot, "cas-root", ".discernus/cas", "artifact store directory")
	runCmd.Flags().Float64Var(&runBudget, "daily-budget-usd", 0, "abort before any call that would exceed this daily spend (0 disables the check)")
	runCmd.Flags().StringVar(&runVerifierModel, "verifier-model", "claude-3-5-sonnet-latest", "model family used for every Verification Agent call")
	runCmd.Flags().StringVar(&runSynthesisModel, "synthesis-model", "gpt-4o", "model used for every Sequential Synthesis Agent stage")
}

func runE(cmd *cobra.Command, args []string) error {
	experimentPath := args[0]
	ctx := cmd.Context()

	in, err := loadExperimentInputs(experimentPath)
	if err != nil {
		return &stageError{stage: "load", reason: err.Error()}
	}

	rt, err := newRuntime(ctx, runCASRoot, runBudget)
	if err != nil {
		return &stageError{stage: "load", reason: err.Error()}
	}

	orch := orchestrator.New(rt.store, rt.gateway, rt.prompts, rt.logger, runVerifierModel, runSynthesisModel)
	manifest, err := orch.Run(ctx, uuid.NewString(), *in)
	if err != nil {
		var aborted *orchestrator.Aborted
		if ok := asOrchestratorAborted(err, &aborted); ok {
			return &stageError{stage: aborted.Stage, reason: aborted.Reason, lastSuccessfulHash: manifest.LastSuccessfulHash, guidance: aborted.Guidance}
		}
		return &stageError{stage: "run", reason: err.Error()}
	}

	fmt.Printf("run %s completed: final_report %s (framework %s, statistics %s, knowledge index %s)\n",
		manifest.RunID, manifest.FinalReportHash, manifest.FrameworkHash, manifest.StatisticsHash, manifest.KnowledgeIndexID)
	return nil
}

func asOrchestratorAborted(err error, dst **orchestrator.Aborted) bool {
	aborted, ok := err.(*orchestrator.Aborted)
	if ok {
		*dst = aborted
	}
	return ok
}

// loadExperimentInputs reads framework.yaml, corpus_manifest.yaml, and
// experiment_config.yaml from the conventional filenames inside
// experimentPath (spec.md 6's external interfaces), and computes the
// expected document hashes the Transaction Integrity Manager's data
// check validates against the corpus as actually read.
func loadExperimentInputs(experimentPath string) (*orchestrator.Inputs, error) {
	framework, err := config.LoadFrameworkSpec(filepath.Join(experimentPath, "framework.yaml"))
	if err != nil {
		return nil, err
	}
	documents, expectedHashes, err := config.LoadCorpusDocuments(filepath.Join(experimentPath, "corpus_manifest.yaml"))
	if err != nil {
		return nil, err
	}
	experimentConfig, err := config.LoadExperimentConfig(filepath.Join(experimentPath, "experiment_config.yaml"))
	if err != nil {
		return nil, err
	}

	return &orchestrator.Inputs{
		Framework:              framework,
		Documents:              documents,
		Config:                 experimentConfig,
		ExpectedDocumentHashes: expectedHashes,
	}, nil
}
