package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/lonng/dicebox/db"
	"github.com/lonng/dicebox/internal/facemap"
	"github.com/lonng/dicebox/internal/game"
	"github.com/lonng/dicebox/internal/hooks"
	"github.com/lonng/dicebox/internal/physics"
	"github.com/lonng/dicebox/internal/transport"
	"github.com/lonng/dicebox/internal/web"
	"github.com/lonng/dicebox/internal/world"
	"github.com/lonng/dicebox/protocol"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := cli.NewApp()

	// base application info
	app.Name = "dicebox"
	app.Author = "dicebox team"
	app.Version = "0.1.0"
	app.Copyright = "dicebox team reserved"
	app.Usage = "physics dice server"

	// flags
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "./configs/config.toml",
			Usage: "load configuration from `FILE`",
		},
		cli.BoolFlag{
			Name:  "cpuprofile",
			Usage: "enable cpu profile",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "serve the http api and the game server",
			Action: serve,
		},
		{
			Name:   "physics",
			Usage:  "serve the physics world over websocket",
			Action: physicsServe,
		},
	}

	app.Action = serve
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) (func(), error) {
	viper.SetConfigType("toml")
	viper.SetConfigFile(c.GlobalString("config"))
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	log.SetFormatter(&log.TextFormatter{DisableColors: true})
	if viper.GetBool("core.debug") {
		log.SetLevel(log.DebugLevel)
	}
	if viper.GetBool("core.log_caller") {
		log.AddHook(hooks.NewHook())
	}

	if !c.GlobalBool("cpuprofile") {
		return func() {}, nil
	}
	filename := fmt.Sprintf("cpuprofile-%d.pprof", time.Now().Unix())
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE, os.ModePerm)
	if err != nil {
		return nil, err
	}
	pprof.StartCPUProfile(f)
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

// registry loads the face maps of the configured dice models and checks them
// against the collider geometry
func registry() (*facemap.Registry, error) {
	var reg *facemap.Registry
	if path := viper.GetString("world.metadata"); path != "" {
		r, err := facemap.LoadMetadata(path)
		if err != nil {
			return nil, err
		}
		reg = r
	} else {
		var opts []facemap.Option
		if viper.IsSet("world.d4_face_down") {
			opts = append(opts, facemap.WithD4FaceDown(viper.GetBool("world.d4_face_down")))
		}
		reg = facemap.Default(opts...)
	}

	if err := reg.Validate(reg.FaceCounts()); err != nil {
		return nil, err
	}
	return reg, nil
}

func physicsParams() (json.RawMessage, error) {
	settings := viper.GetStringMap("physics")
	if len(settings) == 0 {
		return nil, nil
	}
	return json.Marshal(settings)
}

// worldChannel dials a remote physics worker, or runs one in process
func worldChannel(ctx context.Context, reg *facemap.Registry) (transport.Channel, error) {
	if url := viper.GetString("worker.url"); url != "" {
		log.Infof("dial physics world %s", url)
		return transport.Dial(ctx, url)
	}

	local, remote := transport.Pipe()
	w := physics.NewWorker(remote, reg, physics.WithFaceCounts(reg.FaceCounts()))
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Infof("physics worker stopped: %v", err)
		}
	}()
	return local, nil
}

func startWorld(ctx context.Context, reg *facemap.Registry) (*world.World, error) {
	ch, err := worldChannel(ctx, reg)
	if err != nil {
		return nil, err
	}

	w := world.New(ch, world.Config{
		RequestTimeout: viper.GetDuration("world.request_timeout"),
	}, world.WithListener(game.Listener()))

	params, err := physicsParams()
	if err != nil {
		w.Close()
		return nil, err
	}

	surface := protocol.Surface{
		ID:     viper.GetString("world.surface"),
		Width:  viper.GetInt("world.width"),
		Height: viper.GetInt("world.height"),
	}
	options := protocol.WorldOptions{
		Theme:      viper.GetString("world.theme"),
		ThemeColor: viper.GetString("world.theme_color"),
		Scale:      viper.GetFloat64("world.scale"),
		Physics:    params,
	}
	if err := w.Init(ctx, surface, options); err != nil {
		w.Close()
		return nil, err
	}
	if options.Theme != "" {
		if err := w.LoadTheme(ctx, options.Theme); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

func serve(c *cli.Context) error {
	stopProfile, err := setup(c)
	if err != nil {
		return err
	}
	defer stopProfile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry()
	if err != nil {
		return err
	}
	w, err := startWorld(ctx, reg)
	if err != nil {
		return err
	}
	defer w.Close()

	closer := web.DBStartup()
	defer closer()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return web.Startup(ctx, w) })
	g.Go(func() error {
		game.Startup(w, db.InsertRollAsync)
		stop()
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		game.Shutdown()
		return nil
	})
	return g.Wait()
}

func physicsServe(c *cli.Context) error {
	stopProfile, err := setup(c)
	if err != nil {
		return err
	}
	defer stopProfile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry()
	if err != nil {
		return err
	}

	params, err := physicsParams()
	if err != nil {
		return err
	}
	defaults, err := physics.DefaultParams().Merge(params)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/world", transport.Handler(physics.Serve(ctx, reg, physics.WithParams(defaults), physics.WithFaceCounts(reg.FaceCounts()))))

	addr := viper.GetString("worker.addr")
	server := &http.Server{Addr: addr, Handler: mux}
	log.Infof("physics world addr: %s", addr)

	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdown)
}
