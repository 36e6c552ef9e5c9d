package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lonng/dicebox/db"
	"github.com/lonng/dicebox/internal/game"
	"github.com/lonng/dicebox/internal/web/api"
	"github.com/lonng/dicebox/internal/whitelist"
	"github.com/lonng/dicebox/protocol"
	"github.com/lonng/nex"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

var logger = log.WithField("component", "http")

// DBStartup connects the history store described by the database section
func DBStartup() func() {
	driver := viper.GetString("database.driver")
	if driver == "" {
		driver = "mysql"
	}

	var dsn string
	if driver == "mysql" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s",
			viper.GetString("database.username"),
			viper.GetString("database.password"),
			viper.GetString("database.host"),
			viper.GetString("database.port"),
			viper.GetString("database.dbname"),
			viper.GetString("database.args"))
	} else {
		dsn = viper.GetString("database.path")
	}

	return db.MustStartup(
		dsn,
		db.Driver(driver),
		db.MaxIdleConns(viper.GetInt("database.max_idle_conns")),
		db.MaxOpenConns(viper.GetInt("database.max_open_conns")),
		db.ShowSQL(viper.GetBool("database.show_sql")))
}

func enableWhiteList() error {
	return whitelist.Setup(viper.GetStringSlice("whitelist.ip"))
}

func version() (*protocol.Version, error) {
	return &protocol.Version{
		Version:  viper.GetString("update.version"),
		Protocol: protocol.Revision,
	}, nil
}

func pongHandler() (string, error) {
	return "pong", nil
}

func logRequest(ctx context.Context, r *http.Request) (context.Context, error) {
	if uri := r.RequestURI; uri != "/ping" {
		logger.Debugf("Method=%s, RemoteAddr=%s URL=%s", r.Method, r.RemoteAddr, uri)
	}
	return ctx, nil
}

func startupService(w api.World) http.Handler {
	var (
		mux     = http.NewServeMux()
		rolls   = api.MakeRollService(w, db.InsertRollAsync, game.NotifyClear)
		history = api.MakeHistoryService()
	)

	nex.Before(logRequest)
	nex.SetErrorEncoder(api.EncodeError)

	for _, path := range []string{"/v1/roll", "/v1/add", "/v1/reroll", "/v1/remove", "/v1/clear"} {
		mux.Handle(path, rolls)
	}
	mux.Handle("/v1/history", history)
	mux.Handle("/v1/history/", history)
	mux.Handle("/v1/version", nex.Handler(version))

	// GM commands
	mux.Handle("/v1/gm/broadcast", nex.Handler(broadcast).Before(authFilter))

	mux.Handle("/ping", nex.Handler(pongHandler))

	return AccessControl(OptionControl(mux))
}

// Startup serves the http api until ctx is done
func Startup(ctx context.Context, w api.World) error {
	if err := enableWhiteList(); err != nil {
		return err
	}

	var (
		addr      = viper.GetString("webserver.addr")
		cert      = viper.GetString("webserver.certificates.cert")
		key       = viper.GetString("webserver.certificates.key")
		enableSSL = viper.GetBool("webserver.enable_ssl")
	)

	logger.Infof("Web service addr: %s(enable ssl: %v)", addr, enableSSL)
	server := &http.Server{Addr: addr, Handler: startupService(w)}

	errc := make(chan error, 1)
	go func() {
		if enableSSL {
			errc <- server.ListenAndServeTLS(cert, key)
		} else {
			errc <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("web service shutdown")
	return server.Shutdown(shutdown)
}
