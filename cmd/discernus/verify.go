package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discernus/discernus-core/internal/integrity"
)

var verifyCASRoot string

var verifyCmd = &cobra.Command{
	Use:   "verify <experiment_path>",
	Short: "Run only the framework and data pre-flight checks",
	Args:  cobra.ExactArgs(1),
	RunE:  verifyE,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyCASRoot, "cas-root", ".discernus/cas", "artifact store directory")
}

func verifyE(cmd *cobra.Command, args []string) error {
	experimentPath := args[0]
	ctx := cmd.Context()

	in, err := loadExperimentInputs(experimentPath)
	if err != nil {
		return &stageError{stage: "load", reason: err.Error()}
	}

	rt, err := newRuntime(ctx, verifyCASRoot, 0)
	if err != nil {
		return &stageError{stage: "load", reason: err.Error()}
	}

	fwResult := integrity.CheckFramework(in.Framework, nil)
	if !fwResult.Valid {
		return &stageError{stage: "transaction_integrity", reason: "framework pre-flight failed", guidance: fwResult.Guidance}
	}

	dataResult := integrity.CheckData(rt.store, in.Documents, in.ExpectedDocumentHashes)
	if !dataResult.Valid {
		return &stageError{stage: "transaction_integrity", reason: "data pre-flight failed", guidance: dataResult.Guidance}
	}
	for _, w := range dataResult.Warnings {
		rt.logger.WarnContext(ctx, "verify: %s: %s", w.DocumentID, w.Message)
	}

	fmt.Printf("pre-flight passed: framework %q (%d dimensions), %d corpus documents\n",
		in.Framework.Name, len(in.Framework.Dimensions), len(in.Documents))
	return nil
}
