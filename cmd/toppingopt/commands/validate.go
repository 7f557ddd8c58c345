package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crk-toppings/optimizer/pkg/requirements"
)

var validateCmd = &cobra.Command{
	Use:   "validate <requirements.yaml>",
	Short: "Load a requirements file and report parse/semantic errors without searching",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		set, err := requirements.Load(data)
		if err != nil {
			return err
		}
		for _, r := range set {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Name, r.Objective)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d cookie(s) OK\n", len(set))
		return nil
	},
}
