//go:build !windows

package os

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCallsFinalHandler(t *testing.T) {
	assert := assert.New(t)
	value := 0
	exitMu.Lock()
	finalHandler = func(ec int) {
		value += ec
	}
	exitMu.Unlock()
	Exit(1)
	assert.Equal(1, value)
}

func TestOnExitHandlersLIFO(t *testing.T) {
	assert := assert.New(t)
	order := []string{}
	exitMu.Lock()
	finalHandler = func(ec int) {
		order = append(order, "final")
	}
	exitMu.Unlock()
	OnExit(func(ec int) {
		order = append(order, "first")
	})
	OnExit(func(ec int) {
		order = append(order, "second")
	})
	Exit(0)
	assert.Equal([]string{"second", "first", "final"}, order)

	// handlers are unregistered after the first Exit
	order = nil
	Exit(0)
	assert.Equal([]string{"final"}, order)
}
