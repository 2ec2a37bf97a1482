package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats <artifact_dir>",
	Short: "Run the Statistical Processor standalone over an existing artifact store",
	Args:  cobra.ExactArgs(1),
	RunE:  statsE,
}

func statsE(cmd *cobra.Command, args []string) error {
	artifactDir := args[0]
	ctx := cmd.Context()

	store, err := cas.Open(artifactDir)
	if err != nil {
		return &stageError{stage: "load", reason: err.Error()}
	}

	var results []artifact.AnalysisResult
	var parents []string
	for _, id := range store.List(cas.ByType(artifact.TypeAnalysisResult)) {
		content, _, err := store.Get(id)
		if err != nil {
			return &stageError{stage: "statistics", reason: fmt.Sprintf("load analysis result %s: %v", id, err)}
		}
		var result artifact.AnalysisResult
		if err := json.Unmarshal(content, &result); err != nil {
			return &stageError{stage: "statistics", reason: fmt.Sprintf("decode analysis result %s: %v", id, err)}
		}
		results = append(results, result)
		parents = append(parents, id)
	}
	if len(results) == 0 {
		return &stageError{stage: "statistics", reason: fmt.Sprintf("no analysis_result artifacts found under %s", artifactDir)}
	}

	logger := logutil.NewLogger(logutil.InfoLevel, cmd.ErrOrStderr(), "discernus")
	processor := stats.NewProcessor(store, logger)
	hash, err := processor.Process(ctx, results, parents)
	if err != nil {
		return &stageError{stage: "statistics", reason: err.Error()}
	}

	fmt.Printf("statistics artifact %s computed over %d analysis results\n", hash, len(results))
	return nil
}
