// Command toppingopt is the topping optimizer's CLI: solve a team's
// requirements against an inventory, or validate a requirements file
// without searching. Grounded on DimaJoyti-go-coffee's cobra+viper root
// command wiring (cmd/task-cli/commands/root.go).
package main

import (
	"os"

	"github.com/crk-toppings/optimizer/cmd/toppingopt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
