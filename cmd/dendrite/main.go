// Command dendrite sends synapses to axons from the command line.
//
//	dendrite keygen --out ~/.bittensor/hotkey
//	dendrite query --synapse Echo --payload '{"text":"hi"}' --axon 10.0.0.1:8091:5F...
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
