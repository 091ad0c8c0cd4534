// Command gatewayctl is the admin CLI for a running gatewayd process.
package main

import (
	"github.com/wadaptive/artio-go/cmd/gatewayctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.Exit("Error: %v", err)
	}
}
