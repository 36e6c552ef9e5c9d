package db

import (
	"sync"
	"time"

	"github.com/lonng/dicebox/db/model"

	_ "github.com/go-sql-driver/mysql"
	"github.com/go-xorm/xorm"
	log "github.com/sirupsen/logrus"
)

const asyncTaskBacklog = 128

var (
	DB      *xorm.Engine
	logger  *log.Entry
	chWrite chan *record // async write channel
	chStop  chan struct{}
	writers sync.WaitGroup
)

type options struct {
	driver       string
	showSQL      bool
	maxOpenConns int
	maxIdleConns int
}

// ModelOption specifies an option for dialing a database.
type ModelOption func(*options)

// Driver selects the sql driver, "mysql" or "sqlite3".
func Driver(name string) ModelOption {
	return func(opts *options) {
		opts.driver = name
	}
}

// MaxIdleConns specifies the max idle connect numbers.
func MaxIdleConns(i int) ModelOption {
	return func(opts *options) {
		opts.maxIdleConns = i
	}
}

// MaxOpenConns specifies the max open connect numbers.
func MaxOpenConns(i int) ModelOption {
	return func(opts *options) {
		opts.maxOpenConns = i
	}
}

// ShowSQL logs every statement.
func ShowSQL(show bool) ModelOption {
	return func(opts *options) {
		opts.showSQL = show
	}
}

func envInit() {
	// async task
	writers.Add(1)
	go func() {
		defer writers.Done()
		for r := range chWrite {
			if err := insertRecord(r); err != nil {
				logger.Errorf("async insert roll %s: %v", r.roll.RollId, err)
			}
		}
	}()

	// keep the connection pool warm
	go func() {
		ticker := time.NewTicker(time.Minute * 5)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				DB.Ping()
			case <-chStop:
				return
			}
		}
	}()
}

// MustStartup connects the history store, the returned closer flushes
// pending writes and closes the engine
func MustStartup(dsn string, opts ...ModelOption) func() {
	logger = log.WithField("component", "model")
	settings := &options{
		driver:       "mysql",
		maxIdleConns: defaultMaxConns,
		maxOpenConns: defaultMaxConns,
		showSQL:      true,
	}

	// options handle
	for _, opt := range opts {
		opt(settings)
	}
	if settings.driver == driverSQLite {
		// one writer at a time
		settings.maxOpenConns = 1
		settings.maxIdleConns = 1
	}

	logger.Infof("Driver=%s DSN=%s ShowSQL=%t MaxIdleConn=%v MaxOpenConn=%v",
		settings.driver, dsn, settings.showSQL, settings.maxIdleConns, settings.maxOpenConns)

	// create database instance
	if db, err := xorm.NewEngine(settings.driver, dsn); err != nil {
		panic(err)
	} else {
		DB = db
	}

	// logging
	DB.SetLogger(newLogger(logger.WithField("orm", "xorm")))

	chWrite = make(chan *record, asyncTaskBacklog)
	chStop = make(chan struct{})

	// options
	DB.SetMaxIdleConns(settings.maxIdleConns)
	DB.SetMaxOpenConns(settings.maxOpenConns)
	DB.ShowSQL(settings.showSQL)

	if err := syncSchema(settings.driver); err != nil {
		panic(err)
	}
	envInit()

	closer := func() {
		close(chWrite)
		close(chStop)
		writers.Wait()
		DB.Close()
		logger.Info("stopped")
	}

	return closer
}

func syncSchema(driver string) error {
	beans := []interface{}{
		new(model.Roll),
		new(model.RollDie),
	}
	if driver == "mysql" {
		return DB.StoreEngine("InnoDB").Sync2(beans...)
	}
	return DB.Sync2(beans...)
}
