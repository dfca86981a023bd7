package workflow

import "github.com/spf13/cobra"

// NewCmd returns the "workflow" command group.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Start, inspect, and steer workflow runs",
	}
	cmd.AddCommand(
		newExecuteCmd(),
		newListCmd(),
		newGetCmd(),
		newPartialCmd(),
		newResumeCmd(),
	)
	return cmd
}
