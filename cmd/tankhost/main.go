// Command tankhost talks to the tank controller over its serial link: it
// sends commands, prints telemetry and can run the supervising loop.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
