package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

func newPartialCmd() *cobra.Command {
	var versionID, target, outputsJSON, inputsJSON string
	var rerun bool
	cmd := &cobra.Command{
		Use:   "partial <workflow-id>",
		Short: "Re-run a workflow from a target node, reusing upstream outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionID == "" {
				return fmt.Errorf("workflow partial: --version is required")
			}
			if target == "" {
				return fmt.Errorf("workflow partial: --target is required")
			}
			ctrl, err := buildController(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Temporal.Close()

			partialOutputs := map[string]core.Output{}
			if outputsJSON != "" {
				if err := json.Unmarshal([]byte(outputsJSON), &partialOutputs); err != nil {
					return fmt.Errorf("workflow partial: parse --outputs: %w", err)
				}
			}
			inputs := core.Input{}
			if inputsJSON != "" {
				if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
					return fmt.Errorf("workflow partial: parse --inputs: %w", err)
				}
			}

			r, err := ctrl.PartialRun(
				cmd.Context(),
				core.ID(args[0]), core.ID(versionID),
				target, partialOutputs, rerun, inputs,
			)
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
	cmd.Flags().StringVar(&versionID, "version", "", "workflow version ID to replay")
	cmd.Flags().StringVar(&target, "target", "", "node ID to start execution from")
	cmd.Flags().StringVar(&outputsJSON, "outputs", "", "JSON map of nodeID -> output, seeding predecessors (ignored with --rerun-predecessors)")
	cmd.Flags().StringVar(&inputsJSON, "inputs", "", "JSON object for the run's initial inputs")
	cmd.Flags().BoolVar(&rerun, "rerun-predecessors", false, "recompute every node upstream of --target instead of seeding from --outputs")
	return cmd
}
