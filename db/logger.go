package db

import (
	"sync/atomic"

	"github.com/go-xorm/core"
	log "github.com/sirupsen/logrus"
)

// Logger routes xorm output into logrus
type Logger struct {
	*log.Entry
	level   core.LogLevel
	showSQL int32
}

var levels = map[core.LogLevel]log.Level{
	core.LOG_DEBUG:   log.DebugLevel,
	core.LOG_INFO:    log.InfoLevel,
	core.LOG_WARNING: log.WarnLevel,
	core.LOG_ERR:     log.ErrorLevel,
	core.LOG_OFF:     log.PanicLevel,
}

func newLogger(entry *log.Entry) *Logger {
	return &Logger{Entry: entry, level: core.LOG_INFO}
}

// SetLevel narrows the entry to its own logger at the matching logrus level
func (l *Logger) SetLevel(level core.LogLevel) {
	l.level = level
	lv, ok := levels[level]
	if !ok {
		return
	}
	child := log.New()
	child.Out = l.Entry.Logger.Out
	child.Formatter = l.Entry.Logger.Formatter
	child.Hooks = l.Entry.Logger.Hooks
	child.SetLevel(lv)
	l.Entry = child.WithFields(l.Entry.Data)
}

func (l *Logger) Level() core.LogLevel {
	return l.level
}

func (l *Logger) ShowSQL(show ...bool) {
	v := int32(1)
	if len(show) > 0 && !show[0] {
		v = 0
	}
	atomic.StoreInt32(&l.showSQL, v)
}

func (l *Logger) IsShowSQL() bool {
	return atomic.LoadInt32(&l.showSQL) == 1
}
