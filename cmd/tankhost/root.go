package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sweeney/tank-controller/internal/link"
)

// Replaced in tests.
var (
	openPort  = link.OpenSerial
	listPorts = link.Ports
)

type options struct {
	port string
	baud int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tankhost",
		Short: "Host side of the tank controller serial link",
		Long: `tankhost sends command frames to the tank controller and decodes the
telemetry it sends back.

Connection:
  --port /dev/ttyACM0 [--baud 250000]`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.port, "port", "p", "/dev/ttyACM0", "Serial port device")
	root.PersistentFlags().IntVarP(&opts.baud, "baud", "b", 250000, "Baud rate")

	root.AddCommand(
		newSendCmd(opts),
		newExchangeCmd(opts),
		newRunCmd(opts),
		newPortsCmd(),
	)
	return root
}

func (o *options) open() (link.Port, error) {
	return openPort(o.port, o.baud)
}

func printTelemetry(w io.Writer, tel link.Telemetry) {
	fmt.Fprintf(w, "level=%d%% temperature=%.1f\n", tel.Level, tel.Temperature)
}
