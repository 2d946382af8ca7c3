package os

import (
	"os"
	"os/signal"
	"sync"
)

// OnExitFunc is a handler invoked with the exit code when the process exits
type OnExitFunc func(code int)

var (
	exitMu       sync.Mutex
	exitHandlers []OnExitFunc
	// maps to os.Exit normally but can be hooked for testing
	finalHandler OnExitFunc = os.Exit
	signalsOnce  sync.Once
)

// Exit runs any registered exit handlers (LIFO) and then terminates the
// process with code
func Exit(code int) {
	exitMu.Lock()
	for i := len(exitHandlers) - 1; i >= 0; i-- {
		exitHandlers[i](code)
	}
	// handlers run at most once even if Exit is re-entered
	exitHandlers = nil
	h := finalHandler
	exitMu.Unlock()
	h(code)
}

// OnExit registers a handler to run when the process exits through Exit.
// SIGINT and SIGTERM are translated into an Exit(0) so handlers also run
// on a signal-driven shutdown
func OnExit(handler OnExitFunc) {
	exitMu.Lock()
	exitHandlers = append(exitHandlers, handler)
	exitMu.Unlock()
	signalsOnce.Do(func() {
		go func() {
			c := make(chan os.Signal, 5)
			signal.Notify(c, getOnExitSignals()...)
			<-c
			Exit(0)
		}()
	})
}
