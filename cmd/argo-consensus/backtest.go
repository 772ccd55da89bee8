package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/backtest"
	"github.com/rxtech-lab/argo-consensus/internal/datasource"
	"github.com/rxtech-lab/argo-consensus/internal/engine"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay a parquet or CSV series through the engine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Engine config (YAML or JSON)", Required: true},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Bar file (.parquet or .csv)", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Directory for trades.parquet and stats.yaml", Value: "results"},
			&cli.StringFlag{Name: "journal", Aliases: []string{"j"}, Usage: "Optional SQLite journal path"},
			&cli.TimestampFlag{
				Name:   "start",
				Usage:  "Only replay bars at or after `YYYY-MM-DD`",
				Config: cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}},
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "Only replay bars at or before `YYYY-MM-DD`",
				Config: cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}},
			},
		},
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	config, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	query := datasource.Query{Symbol: optional.Some(config.Symbol)}
	if cmd.IsSet("start") {
		query.Start = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		query.End = optional.Some(cmd.Timestamp("end"))
	}

	bars, err := datasource.LoadBars(ctx, cmd.String("data"), query, log)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(bars)), fmt.Sprintf("Backtesting %s", config.Symbol))

	result, err := backtest.RunBacktest(ctx, bars, config,
		backtest.WithLogger(log),
		backtest.WithProgress(func(current, _ int) {
			_ = bar.Set(current)
		}),
	)
	if err != nil {
		return err
	}

	_ = bar.Finish()

	output := cmd.String("output")
	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writer.ExportTrades(filepath.Join(output, "trades.parquet"), result.Trades); err != nil {
		return err
	}

	if err := types.WriteResult(filepath.Join(output, "stats.yaml"), result); err != nil {
		return err
	}

	if path := cmd.String("journal"); path != "" {
		journal, err := writer.NewJournal(path, log)
		if err != nil {
			return err
		}
		defer journal.Close()

		if err := journal.RecordRun(ctx, result); err != nil {
			return err
		}
	}

	log.Info("Results written", zap.String("output", output))
	printSummary(result)

	return nil
}

func printSummary(result types.Result) {
	stats := result.Stats

	fmt.Printf("\n%s %s  bars=%d\n", result.Symbol, result.Interval, result.BarsProcessed)
	fmt.Printf("  capital        %.2f -> %.2f (%.2f%%)\n", result.InitialCapital, result.CurrentCapital, stats.TotalReturn*100)
	fmt.Printf("  max drawdown   %.2f%%\n", result.MaxDrawdown*100)
	fmt.Printf("  trades         %d (won %d, lost %d, win rate %.2f%%)\n",
		stats.NumberOfTrades, stats.NumberOfWinningTrades, stats.NumberOfLosingTrades, stats.WinRate*100)
	fmt.Printf("  total pnl      %.2f (fees %.2f)\n", stats.TotalPnL, stats.TotalFees)
	fmt.Printf("  profit factor  %.2f\n", stats.ProfitFactor)
	fmt.Printf("  sharpe         %.2f\n", stats.SharpeRatio)
}
