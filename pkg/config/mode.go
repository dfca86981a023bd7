package config

import "strings"

// Mode selects where a component keeps its runtime state: in process
// memory, on local disk, or in a shared distributed store.
const (
	ModeMemory         = "memory"
	ModePersistent     = "persistent"
	ModeDistributed    = "distributed"
	ModeStandalone     = "standalone"
	ModeRemoteTemporal = "remote_temporal"
)

func normalizeMode(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validMode(m string) bool {
	switch m {
	case ModeMemory, ModePersistent, ModeDistributed, ModeStandalone, ModeRemoteTemporal:
		return true
	default:
		return false
	}
}
