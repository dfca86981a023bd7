package builtin

import "github.com/pyspur-dev/workflow-engine/engine/core"

func nodeErrCanceled(nodeType string) error {
	return core.NewCancellationError(nodeType + " canceled")
}
