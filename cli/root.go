package cli

import (
	"context"
	"fmt"
	"os"

	workercmd "github.com/pyspur-dev/workflow-engine/cli/cmd/worker"
	workflowcmd "github.com/pyspur-dev/workflow-engine/cli/cmd/workflow"
	"github.com/pyspur-dev/workflow-engine/pkg/config"
	"github.com/pyspur-dev/workflow-engine/pkg/logger"
	"github.com/spf13/cobra"
)

// RootCmd assembles the workflow-engine CLI: one cobra command per
// surface (workflow runs, the Temporal worker) sharing a single loaded
// Config and Logger attached to the command context.
func RootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:   "pyspur",
		Short: "Workflow execution engine CLI",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupGlobalConfig(cmd, cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		workflowcmd.NewCmd(),
		workercmd.NewCmd(),
	)
	return root
}

// setupGlobalConfig loads layered configuration (defaults, optional YAML
// file, environment) and attaches both the resolved Config and a Logger
// to the command's context for subcommands to pull via
// config.FromContext/logger.FromContext.
func setupGlobalConfig(cmd *cobra.Command, cfgPath string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sources := []config.Source{config.NewDefaultProvider(), config.NewEnvProvider()}
	if cfgPath != "" {
		sources = append(sources, config.NewYAMLProvider(cfgPath))
	}
	mgr := config.NewManager(config.NewService())
	cfg, err := mgr.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx = config.ContextWithConfig(ctx, cfg)

	logLevel := logger.LogLevel(cfg.Runtime.LogLevel)
	log := logger.NewLogger(&logger.Config{Level: logLevel, JSON: false, AddSource: false, Output: os.Stderr})
	ctx = logger.ContextWithLogger(ctx, log)

	cmd.SetContext(ctx)
	return nil
}
