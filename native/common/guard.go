package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// Module names understood by Guard.
const (
	ModuleRefinery = "refinery"
	ModuleFleet    = "fleet"
	ModuleUpgrade  = "upgrade"
	ModuleMarket   = "market"
	ModuleStaking  = "staking"
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Pauses is a static PauseView keyed by module name.
type Pauses map[string]bool

// IsPaused implements PauseView.
func (p Pauses) IsPaused(module string) bool {
	if p == nil {
		return false
	}
	return p[module]
}
