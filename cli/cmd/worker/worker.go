// Package worker provides the "worker" CLI command: the Temporal worker
// process that actually executes workflow runs, as opposed to the
// "workflow" command group which only starts/inspects/steers them.
package worker

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/infra/postgres"
	"github.com/pyspur-dev/workflow-engine/engine/llm"
	"github.com/pyspur-dev/workflow-engine/engine/node/builtin"
	"github.com/pyspur-dev/workflow-engine/engine/scheduler"
	"github.com/pyspur-dev/workflow-engine/pkg/config"
	"github.com/pyspur-dev/workflow-engine/pkg/logger"
)

// NewCmd returns the "worker" command: a long-running process polling
// the Temporal task queue for RunWorkflow executions and node Activities.
func NewCmd() *cobra.Command {
	var llmProvider, llmModel, llmAPIKey string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the Temporal worker that executes workflow nodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			if cfg == nil {
				return fmt.Errorf("worker: no configuration on context")
			}
			log := logger.FromContext(ctx)

			store, err := postgres.NewStore(ctx, postgres.FromAppConfig(&cfg.Database))
			if err != nil {
				return fmt.Errorf("worker: connect postgres: %w", err)
			}
			defer store.Close(ctx)

			temporalClient, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
			})
			if err != nil {
				return fmt.Errorf("worker: dial temporal: %w", err)
			}
			defer temporalClient.Close()

			providerCfg := core.NewProviderConfig(core.ProviderName(llmProvider), llmModel, llmAPIKey)
			agentClient, err := llm.NewClient(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("worker: build llm client: %w", err)
			}

			scheduler.RegisterExecutors(builtin.Executors(agentClient))

			w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
			w.RegisterWorkflow(scheduler.RunWorkflow)
			activities := &scheduler.Activities{TaskRepo: postgres.NewTaskRepo(store.Pool())}
			w.RegisterActivity(scheduler.ExecuteNodeActivity)
			w.RegisterActivity(activities.PersistTask)

			log.Info("worker listening", "task_queue", cfg.Temporal.TaskQueue, "namespace", cfg.Temporal.Namespace)
			return w.Run(worker.InterruptCh())
		},
	}
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "mock", "LLM provider for the agent node (openai, anthropic, groq, google, ollama, deepseek, xai, mock)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "model name for the configured LLM provider")
	cmd.Flags().StringVar(&llmAPIKey, "llm-api-key", "", "API key for the configured LLM provider")
	return cmd
}
