package workflow

import (
	"github.com/spf13/cobra"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <workflow-id>",
		Short: "List every recorded run of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := buildController(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Temporal.Close()

			runs, err := ctrl.ListWorkflowRuns(cmd.Context(), core.ID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, runs)
		},
	}
}
