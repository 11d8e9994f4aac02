package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeney/tank-controller/internal/host"
	"github.com/sweeney/tank-controller/internal/link"
)

func newSendCmd(opts *options) *cobra.Command {
	var cmd link.Command

	c := &cobra.Command{
		Use:   "send",
		Short: "Send one command frame without waiting for a reply",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			port, err := opts.open()
			if err != nil {
				return err
			}
			defer port.Close()

			if err := host.NewClient(port, 0).Send(cmd); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "sent power=%t setpoint=%.1f\n", cmd.Power, cmd.Setpoint)
			return nil
		},
	}

	c.Flags().BoolVar(&cmd.Power, "power", false, "Power flag")
	c.Flags().Float32Var(&cmd.Setpoint, "setpoint", 0, "Temperature setpoint")
	return c
}

func newExchangeCmd(opts *options) *cobra.Command {
	var (
		cmd  link.Command
		wait = host.DefaultWait
	)

	c := &cobra.Command{
		Use:   "exchange",
		Short: "Send one command frame and print the telemetry reply",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			port, err := opts.open()
			if err != nil {
				return err
			}
			defer port.Close()

			tel, err := host.NewClient(port, wait).Exchange(cmd)
			if err != nil {
				return err
			}
			printTelemetry(c.OutOrStdout(), tel)
			return nil
		},
	}

	c.Flags().BoolVar(&cmd.Power, "power", false, "Power flag")
	c.Flags().Float32Var(&cmd.Setpoint, "setpoint", 0, "Temperature setpoint")
	c.Flags().DurationVar(&wait, "wait", wait, "How long to collect the reply")
	return c
}
