package hooks

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const callerDepth = 10

// Hook records the file and line of the logging call in Field
type Hook struct {
	sync.RWMutex
	Field  string
	levels []logrus.Level
}

func (hook *Hook) Levels() []logrus.Level {
	return hook.levels
}

func (hook *Hook) Fire(entry *logrus.Entry) error {
	hook.Lock()
	defer hook.Unlock()

	entry.Data[hook.Field] = findCaller()
	return nil
}

func NewHook(levels ...logrus.Level) *Hook {
	hook := Hook{
		Field:  "source",
		levels: levels,
	}
	if len(hook.levels) == 0 {
		hook.levels = logrus.AllLevels
	}

	return &hook
}

// findCaller walks past the logrus frames to the first caller outside it
func findCaller() string {
	for skip := 3; skip < 3+callerDepth; skip++ {
		file, line := getCaller(skip)
		if file == "" {
			break
		}
		if !strings.Contains(file, "sirupsen/logrus") && !strings.HasSuffix(file, "hooks/filename.go") {
			return fmt.Sprintf("%s:%d", trimPath(file), line)
		}
	}
	return ""
}

func getCaller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "", 0
	}
	return file, line
}

// trimPath keeps the package directory and file name
func trimPath(file string) string {
	n := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			n++
			if n >= 2 {
				return file[i+1:]
			}
		}
	}
	return file
}
