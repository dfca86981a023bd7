// Package node defines the uniform contract every node type implements:
// given a config and validated inputs, produce outputs, fail, or pause.
package node

import (
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// Config is a node instance's raw configuration, as stored on
// workflow.Node.Config.
type Config map[string]any

// Kind discriminates the three shapes a Result can take.
type Kind int

const (
	KindOutputs Kind = iota
	KindError
	KindPause
)

// Result is the sum type an Executor's Execute call returns: exactly one
// of Outputs, Err, or a pause request is meaningful, selected by Kind.
type Result struct {
	Kind           Kind
	Outputs        core.Output
	Err            error
	PauseMessage   string
	RequiredFields []string
}

// Outputs builds a successful Result.
func Outputs(out core.Output) Result {
	return Result{Kind: KindOutputs, Outputs: out}
}

// Err builds a failed Result.
func Err(err error) Result {
	return Result{Kind: KindError, Err: err}
}

// Pause builds a Result that suspends the run for human input.
func Pause(message string, requiredFields []string) Result {
	return Result{Kind: KindPause, PauseMessage: message, RequiredFields: requiredFields}
}

// Executor is the interface every node type implements. Execute is pure
// with respect to (config, inputs, ctx.Session()); it may perform I/O, and
// the engine treats that as an opaque effect it does not retry except for
// infrastructure-classified failures.
type Executor interface {
	InputSchema(cfg Config) (*schema.Schema, error)
	OutputSchema(cfg Config) (*schema.Schema, error)
	HasFixedOutput() bool
	Execute(ctx *ExecContext, cfg Config, inputs core.Input) (Result, error)
}

// Subrunner recursively invokes the scheduler over a nested definition,
// satisfied by engine/scheduler.RunWorkflow's child-workflow hook. It is
// declared here, not imported, to keep engine/node free of a dependency on
// the scheduler.
type Subrunner interface {
	Subrun(def any, inputs core.Input) (core.Output, error)
}

// ChildAppender records a nested task's relationship to its parent scope,
// used by loop/agent subworkflows to register their iteration tasks.
type ChildAppender interface {
	AppendChild(taskID, parentTaskID core.ID) error
}

// ExecContext is the handle an Executor receives: it exposes child-task
// bookkeeping, the chat session id (if any), a cancellation signal, and
// the subrun hook for nested definitions.
type ExecContext struct {
	appender  ChildAppender
	subrunner Subrunner
	sessionID string
	done      <-chan struct{}
}

// NewExecContext builds an ExecContext. done may be nil, in which case
// Done() returns a channel that never closes.
func NewExecContext(appender ChildAppender, subrunner Subrunner, sessionID string, done <-chan struct{}) *ExecContext {
	if done == nil {
		done = make(chan struct{})
	}
	return &ExecContext{appender: appender, subrunner: subrunner, sessionID: sessionID, done: done}
}

// AppendChild registers a child task under parentTaskID.
func (c *ExecContext) AppendChild(taskID, parentTaskID core.ID) error {
	if c.appender == nil {
		return nil
	}
	return c.appender.AppendChild(taskID, parentTaskID)
}

// SessionID returns the chat session id this execution belongs to, or "".
func (c *ExecContext) SessionID() string {
	return c.sessionID
}

// Done returns a channel that closes when the run is canceled. Executors
// observe it between steps; in-flight I/O is not forcibly interrupted.
func (c *ExecContext) Done() <-chan struct{} {
	return c.done
}

// Subrun recursively invokes the scheduler over a nested definition, used
// by ForLoop iterations and agent tool calls.
func (c *ExecContext) Subrun(def any, inputs core.Input) (core.Output, error) {
	if c.subrunner == nil {
		return nil, nil
	}
	return c.subrunner.Subrun(def, inputs)
}
