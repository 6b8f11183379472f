// Package servecmder provides a small demo stream server for exercising
// the client locally.
package servecmder

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/eventsource/pkg/config"
	"github.com/papercomputeco/eventsource/pkg/logger"
)

type serveCommander struct {
	listen    string
	interval  time.Duration
	eventName string
	debug     bool

	logger *zap.Logger
}

const serveLongDesc string = `Run a local demo stream server.

The server emits a numbered event stream on /events with id, event and
data fields, an initial retry hint and periodic comment keep-alives, so
the listen command has something realistic to chew on.`

const serveShortDesc string = "Run a local demo stream server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg := config.Load(v)

			if !cmd.Flags().Changed("listen") {
				cmder.listen = cfg.Serve.Listen
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", defaults.Serve.Listen, "Address to listen on")
	cmd.Flags().DurationVar(&cmder.interval, "interval", time.Second, "Delay between emitted events")
	cmd.Flags().StringVar(&cmder.eventName, "event-name", "", "Named event type to emit (default: unnamed message events)")

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	app.Get("/events", c.handleEvents)

	c.logger.Info("starting demo stream server",
		zap.String("listen", c.listen),
		zap.Duration("interval", c.interval),
	)

	return app.Listen(c.listen)
}

// handleEvents streams a numbered demo event sequence until the client
// disconnects.
func (c *serveCommander) handleEvents(ctx *fiber.Ctx) error {
	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-store")

	lastID := ctx.Get("Last-Event-ID")
	interval := c.interval
	eventName := c.eventName
	log := c.logger

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		seq := 0

		// Announce the reconnect interval once, up front.
		fmt.Fprintf(w, "retry: %d\n\n", interval.Milliseconds())
		if err := w.Flush(); err != nil {
			return
		}

		log.Debug("client connected", zap.String("last_event_id", lastID))

		for {
			seq++

			if seq%10 == 0 {
				fmt.Fprint(w, ": keep-alive\n\n")
			}

			fmt.Fprintf(w, "id: %d\n", seq)
			if eventName != "" {
				fmt.Fprintf(w, "event: %s\n", eventName)
			}
			fmt.Fprintf(w, "data: {\"seq\":%d,\"emitted_at\":%q}\n\n", seq, time.Now().UTC().Format(time.RFC3339))

			// Flush failing means the client went away.
			if err := w.Flush(); err != nil {
				log.Debug("client disconnected", zap.Int("events_sent", seq))
				return
			}

			time.Sleep(interval)
		}
	}))

	return nil
}
