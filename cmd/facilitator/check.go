package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/facilitator"
	"github.com/aretw0/facilitator/internal/config"
	"github.com/aretw0/facilitator/internal/planfile"
	"github.com/aretw0/facilitator/pkg/expression"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Replay a plan file through the pre-facilitation checks",
	Long: `Loads a plan file (variables, enclosing levels and nodes), starts every node
under a fresh plan execution and prints the resulting status of each one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")

		return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, logger, path, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("file", "f", "plan.yaml", "Plan file to replay")
	checkCmd.Flags().Bool("json", false, "Print node executions as JSON")
}

func runCheck(ctx context.Context, out io.Writer, cfg config.Config, logger *slog.Logger, path string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	plan, err := planfile.Load(path)
	if err != nil {
		return err
	}

	eng, closeStore, err := newEngine(cfg, logger, facilitator.WithVariables(expression.StaticVariables(plan.Variables)))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()

	root := facilitator.NewPlanExecution(plan.PlanID, plan.Pipeline, plan.Setup)
	parent := plan.Parent(root, func() string { return ulid.Make().String() }, time.Now())

	runner := facilitator.NewRunner(out)
	runner.Headless = asJSON
	if asJSON {
		runner.Output = io.Discard
	}
	results, err := runner.Run(ctx, eng, parent, plan.PlanNodes())
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return nil
}
