package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crk-toppings/optimizer/pkg/inventory"
	"github.com/crk-toppings/optimizer/pkg/optimizer"
	"github.com/crk-toppings/optimizer/pkg/requirements"
)

var outputInventoryPath string

var solveCmd = &cobra.Command{
	Use:   "solve <inventory.csv> <requirements.yaml>",
	Short: "Solve every cookie in a requirements file against a topping inventory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		invFile, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer invFile.Close()

		toppings, err := inventory.Read(invFile)
		if err != nil {
			return err
		}

		reqData, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		reqs, err := requirements.Load(reqData)
		if err != nil {
			return err
		}

		team := optimizer.NewTeam(
			optimizer.WithSoftDeadline(cfg.Search.SoftDeadline),
			optimizer.WithHardDeadline(cfg.Search.HardDeadline),
		).WithTeamLogger(logger)

		ctx := context.Background()
		result, err := team.Solve(ctx, &toppings, reqs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, outcome := range result.Cookies {
			switch outcome.Result.Outcome {
			case optimizer.OutcomeSolved:
				fmt.Fprintf(out, "%s: solved (%d nodes)\n", outcome.Name, outcome.Result.NodesVisited)
				for k, v := range outcome.Result.Fancy {
					fmt.Fprintf(out, "  %s: %s\n", k, v)
				}
			case optimizer.OutcomeNoFeasibleSolution:
				fmt.Fprintf(out, "%s: no feasible solution\n", outcome.Name)
			case optimizer.OutcomeCancelled:
				fmt.Fprintf(out, "%s: cancelled\n", outcome.Name)
			}
		}
		if result.Stopped != "" {
			fmt.Fprintf(out, "team stopped at %s\n", result.Stopped)
		}

		if outputInventoryPath != "" {
			outFile, err := os.Create(outputInventoryPath)
			if err != nil {
				return err
			}
			defer outFile.Close()
			if err := inventory.Write(outFile, toppings); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	solveCmd.Flags().StringVar(&outputInventoryPath, "residual-inventory", "", "write the post-run residual inventory CSV to this path")
}
