// Package recovery wraps background goroutines with panic recovery so one
// misbehaving best-effort task (uploads, remote deletes, title polls) cannot
// take down the whole client.
package recovery

import (
	"runtime/debug"

	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
)

func logPanic(name string, r interface{}) {
	log := logger.Component("recovery")
	log.Error().
		Str("goroutine", name).
		Interface("panic", r).
		Bytes("stack", debug.Stack()).
		Msg("panic recovered")
}

// Go runs fn in a goroutine, logging any panic instead of crashing.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logPanic(name, r)
			}
		}()
		fn()
	}()
}

// GoWithCleanup is Go with a cleanup that runs whether or not fn panicked.
func GoWithCleanup(name string, fn, cleanup func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logPanic(name, r)
			}
			if cleanup != nil {
				cleanup()
			}
		}()
		fn()
	}()
}
