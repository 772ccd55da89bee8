package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/feed"
	"github.com/rxtech-lab/argo-consensus/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	layouts := cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}}

	return &cli.Command{
		Name:  "download",
		Usage: "Download historical bars to a parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s, %s)", feed.ProviderBinance, feed.ProviderPolygon),
				Value:   string(feed.ProviderBinance),
			},
			&cli.StringFlag{Name: "ticker", Aliases: []string{"t"}, Usage: "Symbol to download", Required: true},
			&cli.TimestampFlag{Name: "start", Aliases: []string{"s"}, Usage: "Start date in `YYYY-MM-DD` format", Config: layouts, Required: true},
			&cli.TimestampFlag{Name: "end", Aliases: []string{"e"}, Usage: "End date in `YYYY-MM-DD` format, defaults to now", Config: layouts},
			&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Usage: "Bar interval", Value: string(feed.IntervalOneMinute)},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Parquet file to write, defaults to data/<ticker>_<interval>.parquet"},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	end := time.Now().UTC()
	if cmd.IsSet("end") {
		end = cmd.Timestamp("end")
	}

	req := feed.Request{
		Provider: feed.Provider(cmd.String("provider")),
		Ticker:   cmd.String("ticker"),
		Start:    cmd.Timestamp("start"),
		End:      end,
		Interval: feed.Interval(cmd.String("interval")),
		APIKey:   os.Getenv("POLYGON_API_KEY"),
	}

	if err := req.Validate(); err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = filepath.Join("data", fmt.Sprintf("%s_%s.parquet", req.Ticker, req.Interval))
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	downloader, err := feed.NewDownloader(req, log)
	if err != nil {
		return err
	}

	w := writer.NewBarWriter(output, log)
	if err := w.Initialize(); err != nil {
		return err
	}
	defer w.Close()

	bar := progressbar.Default(100, fmt.Sprintf("Downloading %s", req.Ticker))

	count, err := downloader.Download(ctx, req, w.Write, func(current, total float64, _ string) {
		if total > 0 {
			_ = bar.Set(int(current / total * 100))
		}
	})
	if err != nil {
		return err
	}

	_ = bar.Finish()

	path, err := w.Finalize()
	if err != nil {
		return err
	}

	fmt.Printf("Downloaded %d bars to %s\n", count, path)

	return nil
}
