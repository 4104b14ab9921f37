package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/quantfold/volarb/internal/backtest"
	"github.com/quantfold/volarb/internal/backtest/store"
	"github.com/quantfold/volarb/internal/logger"
	"github.com/quantfold/volarb/internal/report"
	"github.com/quantfold/volarb/internal/version"
)

// symbolFromPath derives the symbol of a data file from its base name,
// `data/SPY.csv` -> `SPY`.
func symbolFromPath(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadEngine(log *logger.Logger, dataFiles []string) (*backtest.Engine, []string, error) {
	engine := backtest.NewEngine(log)

	var symbols []string

	for _, path := range dataFiles {
		symbol := symbolFromPath(path)
		if err := engine.LoadCSV(symbol, path); err != nil {
			return nil, nil, err
		}

		symbols = append(symbols, symbol)
	}

	return engine, symbols, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	config, err := backtest.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	engine, symbols, err := loadEngine(log, cmd.StringSlice("data"))
	if err != nil {
		return err
	}

	if len(config.Symbols) == 0 {
		config.Symbols = symbols
	}

	params := config.Parameters()

	strat, err := config.NewStrategy()
	if err != nil {
		return err
	}

	result, err := engine.Run(params, strat)
	if err != nil {
		return err
	}

	outputDir := cmd.String("output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := result.WriteSummaryYAML(filepath.Join(outputDir, "summary.yaml")); err != nil {
		return err
	}

	if err := result.WriteTradesCSV(filepath.Join(outputDir, "trades.csv")); err != nil {
		return err
	}

	if err := report.WriteHTML(result, strat.Name(), filepath.Join(outputDir, "report.html")); err != nil {
		return err
	}

	if storePath := cmd.String("store"); storePath != "" {
		resultStore, err := store.NewResultStore(storePath, log)
		if err != nil {
			return err
		}
		defer func() { _ = resultStore.Close() }()

		if err := resultStore.Initialize(); err != nil {
			return err
		}

		runID, err := resultStore.WriteResult(strat.Name(), result)
		if err != nil {
			return err
		}

		log.Info("stored run", zap.String("run_id", runID), zap.String("store", storePath))
	}

	if trials := cmd.Int("monte-carlo"); trials > 0 {
		bar := progressbar.Default(int64(trials))
		bar.Describe("Running Monte Carlo trials")

		results, err := engine.RunMonteCarlo(params, strat, int(trials))
		if err != nil {
			return err
		}

		returns := make([]float64, 0, len(results))
		for _, trial := range results {
			returns = append(returns, trial.TotalReturn())
			_ = bar.Add(1)
		}

		log.Info("monte carlo complete",
			zap.Int("trials", len(results)),
			zap.Float64s("total_returns", returns),
		)
	}

	fmt.Println(result.Summarize())
	fmt.Printf("Results saved to: %s\n", outputDir)

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := backtest.DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "volarb",
		Usage:   "Backtest volatility arbitrage strategies over historical options data",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest from a YAML config and CSV data files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the backtest YAML config",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "CSV data file; the symbol is the file's base name. Repeatable.",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory for summary, trades and report",
						Value:   "results",
					},
					&cli.StringFlag{
						Name:  "store",
						Usage: "Optional DuckDB file to persist the run into",
					},
					&cli.IntFlag{
						Name:  "monte-carlo",
						Usage: "Number of repeated Monte Carlo trials (0 disables)",
						Value: 0,
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the backtest config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
