package main

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-consensus/internal/engine"
	"github.com/rxtech-lab/argo-consensus/internal/feed"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/simulation"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/writer"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Run a simulation on live Binance klines until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Engine config (YAML or JSON)", Required: true},
			&cli.StringFlag{Name: "journal", Aliases: []string{"j"}, Usage: "Optional SQLite journal path"},
			&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Usage: "Kline interval, defaults to the config interval"},
			&cli.IntFlag{Name: "max-window", Aliases: []string{"w"}, Usage: "Bars kept for evaluation, overrides the config max_window (0 keeps every bar)"},
		},
		Action: simulateAction,
	}
}

// applyMaxWindow lets a long live session cap its bar history without
// editing the config file.
func applyMaxWindow(cmd *cli.Command, config engine.Config) engine.Config {
	if cmd.IsSet("max-window") {
		config.MaxWindow = int(cmd.Int("max-window"))
	}

	return config
}

func simulateAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	config, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	config = applyMaxWindow(cmd, config)

	interval := feed.Interval(config.Interval)
	if cmd.IsSet("interval") {
		interval = feed.Interval(cmd.String("interval"))
	}

	if interval == "" {
		interval = feed.IntervalOneMinute
	}

	var journal *writer.Journal

	if path := cmd.String("journal"); path != "" {
		journal, err = writer.NewJournal(path, log)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	id := uuid.NewString()
	observers := []simulation.Observer{logUpdates(log)}

	if journal != nil {
		observers = append(observers, journal.Observer(id))
	}

	sim, err := simulation.New(config, fanOut(observers), simulation.WithID(id), simulation.WithLogger(log))
	if err != nil {
		return err
	}

	sim.Start()

	stream := feed.NewBinanceStream(log)
	runErr := pump(ctx, stream, sim, interval, log)

	sim.Stop()

	result := sim.Result()
	if journal != nil {
		if err := journal.RecordRun(context.WithoutCancel(ctx), result); err != nil {
			log.Error("Failed to journal run", zap.Error(err))
		}
	}

	printSummary(result)

	return runErr
}

// pump feeds closed klines into sim until ctx ends or a step fails.
func pump(ctx context.Context, stream *feed.BinanceStream, sim *simulation.Simulation, interval feed.Interval, log *logger.Logger) error {
	for bar, err := range stream.Stream(ctx, sim.Config().Symbol, interval) {
		if err != nil {
			log.Warn("Kline stream error", zap.Error(err))

			continue
		}

		if err := sim.Process(bar); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// fanOut calls every observer in order.
func fanOut(observers []simulation.Observer) simulation.Observer {
	return func(update types.Update) {
		for _, observe := range observers {
			observe(update)
		}
	}
}

func logUpdates(log *logger.Logger) simulation.Observer {
	return func(update types.Update) {
		if opened := update.Opened; opened != nil {
			log.Info("Position opened",
				zap.String("direction", string(opened.Direction)),
				zap.Float64("entry_price", opened.EntryPrice),
				zap.Float64("size", opened.Size),
			)
		}

		if closed := update.Closed; closed != nil {
			log.Info("Position closed",
				zap.String("reason", string(closed.ExitReason)),
				zap.Float64("exit_price", closed.ExitPrice),
				zap.Float64("pnl", closed.RealizedPnL),
				zap.Float64("capital", update.Result.CurrentCapital),
			)
		}
	}
}
