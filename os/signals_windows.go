//go:build windows

package os

import (
	"os"
	"syscall"
)

// getOnExitSignals returns the windows version of signals
func getOnExitSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}
