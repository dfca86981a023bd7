package workflow

import (
	"github.com/spf13/cobra"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Poll a run's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := buildController(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Temporal.Close()

			status, err := ctrl.GetRunStatus(cmd.Context(), core.ID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		},
	}
}
