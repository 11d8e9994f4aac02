package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/tank-controller/internal/host"
	"github.com/sweeney/tank-controller/internal/link"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		setpoint float32
		interval = 200 * time.Millisecond
		wait     = host.DefaultWait
		maxTemp  = host.DefaultMaxTemperature
		count    int
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Keep the controller powered and report telemetry",
		Long: `Send a command every interval with power on and the given setpoint, and
print each telemetry reply. Power is switched off for the rest of the run
once the reported temperature exceeds --max-temp.

Stopping the controller's commands for long enough makes it cut power by
itself.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			port, err := opts.open()
			if err != nil {
				return err
			}
			defer port.Close()

			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := c.OutOrStdout()
			fmt.Fprintf(out, "Connection: %s @ %d baud\n", opts.port, opts.baud)

			sup := host.NewSupervisor(host.NewClient(port, wait), true, setpoint, maxTemp)
			sup.Run(ctx, interval, count, func(tel link.Telemetry) {
				printTelemetry(out, tel)
			})

			// Leave the controller with power off when we stop supervising it.
			return host.NewClient(port, wait).Send(link.Command{Setpoint: setpoint})
		},
	}

	c.Flags().Float32Var(&setpoint, "setpoint", 0, "Temperature setpoint")
	c.Flags().DurationVar(&interval, "interval", interval, "Time between commands")
	c.Flags().DurationVar(&wait, "wait", wait, "How long to collect each reply")
	c.Flags().Float32Var(&maxTemp, "max-temp", maxTemp, "Temperature above which power is switched off")
	c.Flags().IntVar(&count, "count", 0, "Number of exchanges (0 runs until interrupted)")
	return c
}
