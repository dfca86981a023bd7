// Package workflow provides the "workflow" CLI command group: starting,
// inspecting, steering, and replaying runs against a live Temporal cluster
// and Postgres store, via engine/runctl.Controller.
package workflow

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/pyspur-dev/workflow-engine/engine/infra/postgres"
	"github.com/pyspur-dev/workflow-engine/engine/runctl"
	"github.com/pyspur-dev/workflow-engine/pkg/config"
)

// buildController dials Temporal and Postgres per the process config and
// wires a Run Controller. Callers are responsible for closing the
// returned Temporal client via controller.Temporal.Close().
func buildController(ctx context.Context) (*runctl.Controller, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("workflow: no configuration on context")
	}

	store, err := postgres.NewStore(ctx, postgres.FromAppConfig(&cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("workflow: connect postgres: %w", err)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("workflow: dial temporal: %w", err)
	}

	db := store.Pool()
	return &runctl.Controller{
		Temporal:  temporalClient,
		TaskQueue: cfg.Temporal.TaskQueue,
		Workflows: postgres.NewWorkflowRepo(db),
		Runs:      postgres.NewRunRepo(db),
		Pauses:    postgres.NewPauseRepo(db),
		Tasks:     postgres.NewTaskRepo(db),
	}, nil
}
