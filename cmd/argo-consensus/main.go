package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "argo-consensus",
		Usage:   "Consensus trading engine: backtests, live simulations and market data",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			backtestCommand(),
			simulateCommand(),
			serveCommand(),
			downloadCommand(),
			schemaCommand(),
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the root --log-level flag.
func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	log, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}
