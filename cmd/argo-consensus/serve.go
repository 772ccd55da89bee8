package main

import (
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/feed"
	"github.com/rxtech-lab/argo-consensus/internal/server"
	"github.com/rxtech-lab/argo-consensus/internal/simulation"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the simulation API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "Listen address", Value: ":8080"},
			&cli.StringSliceFlag{Name: "stream", Aliases: []string{"s"}, Usage: "Symbols whose live Binance klines are dispatched to matching simulations"},
			&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Usage: "Kline interval of the live streams", Value: string(feed.IntervalOneMinute)},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	manager := simulation.NewManager(log)
	srv := server.New(manager, server.NewHub(0, log), log)

	if err := srv.Start(cmd.String("addr")); err != nil {
		return err
	}

	var wg sync.WaitGroup

	interval := feed.Interval(cmd.String("interval"))
	stream := feed.NewBinanceStream(log)

	for _, symbol := range cmd.StringSlice("stream") {
		wg.Add(1)

		go func(symbol string) {
			defer wg.Done()

			for bar, err := range stream.Stream(ctx, symbol, interval) {
				if err != nil {
					log.Warn("Kline stream error", zap.String("symbol", symbol), zap.Error(err))

					continue
				}

				for id, err := range manager.Dispatch(bar) {
					log.Error("Simulation step failed", zap.String("simulation_id", id), zap.Error(err))
				}
			}
		}(symbol)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	wg.Wait()

	return err
}
