package async

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "async")

func pcall(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.Errorf("async/pcall: Error=%v", err)
		}
	}()

	fn()
}

// Run calls fn in a new goroutine, a panic is logged instead of crashing
// the process
func Run(fn func()) {
	go pcall(fn)
}

// Call runs fn on the current goroutine and turns a panic into an error
func Call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("async/call: Error=%v", r)
			err = errors.Errorf("panic: %v", r)
		}
	}()

	return fn()
}
