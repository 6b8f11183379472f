// Package eventsourcecmder
package eventsourcecmder

import (
	"github.com/spf13/cobra"

	listencmder "github.com/papercomputeco/eventsource/cmd/eventsource/listen"
	servecmder "github.com/papercomputeco/eventsource/cmd/eventsource/serve"
	versioncmder "github.com/papercomputeco/eventsource/cmd/version"
)

const rootLongDesc string = `Eventsource is a client for Server-Sent-Events streams.

Connect to a stream using:
  eventsource listen     Connect to a stream and print events
  eventsource serve      Run a local demo stream server`

const rootShortDesc string = "Eventsource - SSE stream client"

func NewEventSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventsource",
		Short: rootShortDesc,
		Long:  rootLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the config directory")

	// Add subcommands
	cmd.AddCommand(listencmder.NewListenCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
