package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/lonng/nano"
	"github.com/lonng/nano/component"
	"github.com/lonng/nano/pipeline"
	"github.com/lonng/nano/serialize/json"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	version = "" // client version
	logger  = log.WithField("component", "game")
)

// Startup serves the dice component until the process exits
func Startup(roller Roller, record RecordFunc) {
	version = viper.GetString("update.version")
	defaultManager.setup(roller, record)

	heartbeat := viper.GetInt("core.heartbeat")
	if heartbeat < 5 {
		heartbeat = 5
	}

	logger.Infof("game server version: %s, heartbeat interval: %ds", version, heartbeat)
	logger.Info("game service startup")

	// register game handler
	comps := &component.Components{}
	comps.Register(defaultManager)

	opts := []nano.Option{
		nano.WithHeartbeatInterval(time.Duration(heartbeat) * time.Second),
		nano.WithLogger(log.WithField("component", "nano")),
		nano.WithSerializer(json.NewSerializer()),
		nano.WithComponents(comps),
	}

	// packet crypto pipeline
	if key := viper.GetString("game-server.crypto_key"); key != "" {
		c := newCrypto(key)
		pip := pipeline.New()
		pip.Inbound().PushBack(c.inbound)
		pip.Outbound().PushBack(c.outbound)
		opts = append(opts, nano.WithPipeline(pip))
	}

	if viper.GetBool("game-server.websocket") {
		opts = append(opts,
			nano.WithIsWebsocket(true),
			nano.WithWSPath(viper.GetString("game-server.ws_path")),
		)
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("game-server.port"))
	nano.Listen(addr, opts...)
}

var shutdown sync.Once

// Shutdown stops the game server, later calls are no-ops
func Shutdown() {
	shutdown.Do(nano.Shutdown)
}
