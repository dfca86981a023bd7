package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/run"
)

func newResumeCmd() *cobra.Command {
	var action, userID, comments, inputsJSON string
	cmd := &cobra.Command{
		Use:   "resume <run-id>",
		Short: "Resolve an open human-intervention pause and continue the run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resumeAction := run.ResumeAction(action)
			switch resumeAction {
			case run.ResumeApprove, run.ResumeDecline, run.ResumeOverride:
			default:
				return fmt.Errorf("workflow resume: --action must be one of APPROVE, DECLINE, OVERRIDE")
			}
			ctrl, err := buildController(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Temporal.Close()

			inputs := core.Input{}
			if inputsJSON != "" {
				if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
					return fmt.Errorf("workflow resume: parse --inputs: %w", err)
				}
			}

			if err := ctrl.ResumePaused(cmd.Context(), core.ID(args[0]), resumeAction, userID, inputs, comments); err != nil {
				return err
			}
			cmd.Println("resumed")
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "APPROVE, DECLINE, or OVERRIDE")
	cmd.Flags().StringVar(&userID, "user", "", "ID of the user resolving the pause")
	cmd.Flags().StringVar(&comments, "comments", "", "optional reviewer comments")
	cmd.Flags().StringVar(&inputsJSON, "inputs", "", "JSON object of corrected/overridden inputs")
	return cmd
}
