// Package listencmder provides the listen command: connect to an SSE
// stream, print events as they arrive, and optionally relay them to Kafka.
package listencmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/eventsource/pkg/config"
	"github.com/papercomputeco/eventsource/pkg/eventsource"
	"github.com/papercomputeco/eventsource/pkg/logger"
	"github.com/papercomputeco/eventsource/pkg/relay"
	relaykafka "github.com/papercomputeco/eventsource/pkg/relay/kafka"
	"github.com/papercomputeco/eventsource/pkg/relay/nop"
	"github.com/papercomputeco/eventsource/pkg/sse"
)

type listenCommander struct {
	target          string
	headers         []string
	lastEventID     string
	withCredentials bool
	events          []string
	relayBrokers    []string
	relayTopic      string
	debug           bool

	logger *zap.Logger
}

const listenLongDesc string = `Connect to a Server-Sent-Events stream and print events as they arrive.

Named events are only delivered to their own channel; subscribe to them
explicitly with --event. When relay brokers and a topic are configured the
received events are additionally republished to Kafka.`

const listenShortDesc string = "Connect to an SSE stream and print events"

func NewListenCmd() *cobra.Command {
	cmder := &listenCommander{}

	cmd := &cobra.Command{
		Use:   "listen [url]",
		Short: listenShortDesc,
		Long:  listenLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg := config.Load(v)

			if len(args) > 0 {
				cmder.target = args[0]
			} else if !cmd.Flags().Changed("target") {
				cmder.target = cfg.Client.Target
			}
			if !cmd.Flags().Changed("with-credentials") {
				cmder.withCredentials = cfg.Client.WithCredentials
			}
			if !cmd.Flags().Changed("relay-broker") {
				cmder.relayBrokers = cfg.Relay.Brokers
			}
			if !cmd.Flags().Changed("relay-topic") {
				cmder.relayTopic = cfg.Relay.Topic
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.target, "target", "t", defaults.Client.Target, "Stream URL to connect to")
	cmd.Flags().StringArrayVarP(&cmder.headers, "header", "H", nil, "Additional request header as 'Name: value' (repeatable)")
	cmd.Flags().StringVar(&cmder.lastEventID, "last-event-id", "", "Seed the session Last-Event-ID")
	cmd.Flags().BoolVar(&cmder.withCredentials, "with-credentials", defaults.Client.WithCredentials, "Attach ambient credentials to the request")
	cmd.Flags().StringArrayVarP(&cmder.events, "event", "e", nil, "Named event channel to subscribe to (repeatable)")
	cmd.Flags().StringArrayVar(&cmder.relayBrokers, "relay-broker", nil, "Kafka bootstrap broker for relaying events (repeatable)")
	cmd.Flags().StringVar(&cmder.relayTopic, "relay-topic", "", "Kafka topic for relaying events")

	return cmd
}

func (c *listenCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	headers, err := parseHeaders(c.headers)
	if err != nil {
		return err
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return fmt.Errorf("creating relay publisher: %w", err)
	}
	defer publisher.Close()

	opts := []eventsource.Option{
		eventsource.WithHeaders(headers),
		eventsource.WithCredentials(c.withCredentials),
		eventsource.WithLogger(c.logger),
	}
	if c.lastEventID != "" {
		opts = append(opts, eventsource.WithLastEventID(c.lastEventID))
	}

	es, err := eventsource.New(c.target, opts...)
	if err != nil {
		return fmt.Errorf("creating connection: %w", err)
	}
	defer es.Close()

	es.OnOpen(func(ev sse.Event) {
		c.logger.Info("stream open", zap.String("url", ev.Origin))
	})
	es.OnError(func(ev sse.Event) {
		c.logger.Warn("stream error", zap.String("message", ev.Data))
	})
	es.OnMessage(func(ev sse.Event) {
		c.printAndRelay(ctx, publisher, ev)
	})
	for _, name := range c.events {
		es.AddEventListener(name, func(ev sse.Event) {
			c.printAndRelay(ctx, publisher, ev)
		})
	}

	if err := es.Connect(); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}

	c.logger.Info("listening",
		zap.String("target", c.target),
		zap.Strings("events", c.events),
	)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
	case <-es.Done():
	}

	return nil
}

// printAndRelay writes the event to stdout and republishes it when a relay
// is configured. Relay failures are logged, never fatal to the stream.
func (c *listenCommander) printAndRelay(ctx context.Context, publisher relay.Publisher, ev sse.Event) {
	if ev.LastEventID != "" {
		fmt.Printf("[%s] (%s) %s\n", ev.Type, ev.LastEventID, ev.Data)
	} else {
		fmt.Printf("[%s] %s\n", ev.Type, ev.Data)
	}

	if err := publisher.Publish(ctx, relay.NewEnvelope(ev)); err != nil {
		c.logger.Warn("relay publish failed",
			zap.String("type", ev.Type),
			zap.Error(err),
		)
	}
}

// newPublisher builds the relay publisher: Kafka when fully configured,
// otherwise a no-op.
func (c *listenCommander) newPublisher() (relay.Publisher, error) {
	if len(c.relayBrokers) == 0 || c.relayTopic == "" {
		return nop.NewPublisher(), nil
	}

	c.logger.Info("relaying events",
		zap.Strings("brokers", c.relayBrokers),
		zap.String("topic", c.relayTopic),
	)

	return relaykafka.NewPublisher(relaykafka.Config{
		Brokers: c.relayBrokers,
		Topic:   c.relayTopic,
		Logger:  c.logger,
	})
}

// parseHeaders converts repeated "Name: value" flags into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", entry)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
