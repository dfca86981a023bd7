package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyspur-dev/workflow-engine/cli/helpers"
	"github.com/pyspur-dev/workflow-engine/engine/core"
)

func newExecuteCmd() *cobra.Command {
	var inputsJSON string
	cmd := &cobra.Command{
		Use:   "execute <workflow-id>",
		Short: "Start a new run of a workflow's current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := buildController(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Temporal.Close()

			inputs := core.Input{}
			if inputsJSON != "" {
				if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
					return fmt.Errorf("workflow execute: parse --inputs: %w", err)
				}
			}

			r, err := ctrl.StartRun(cmd.Context(), core.ID(args[0]), inputs)
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
	cmd.Flags().StringVar(&inputsJSON, "inputs", "", "JSON object seeding the run's initial inputs")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	f := helpers.NewJSONFormatter(true)
	out, err := f.FormatSuccess(v, nil)
	if err != nil {
		return err
	}
	cmd.Println(out)
	return nil
}
