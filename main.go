// Package main is the entry point for the webhookd event-routing daemon.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/webhookd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
