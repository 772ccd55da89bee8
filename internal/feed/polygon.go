package feed

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// polygonPageLimit is the largest page the aggregates endpoint serves.
const polygonPageLimit = 50000

// AggsIterator walks aggregate results page by page.
type AggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// AggsLister is the aggregates endpoint.
type AggsLister interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) AggsIterator
}

type restAggs struct {
	client *polygon.Client
}

func (r restAggs) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) AggsIterator {
	return r.client.ListAggs(ctx, params, options...)
}

// PolygonDownloader downloads aggregates from Polygon.io.
type PolygonDownloader struct {
	aggs   AggsLister
	logger *logger.Logger
}

func NewPolygonDownloader(apiKey string, log *logger.Logger) (*PolygonDownloader, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return NewPolygonDownloaderWithLister(restAggs{client: polygon.New(apiKey)}, log), nil
}

// NewPolygonDownloaderWithLister uses aggs in place of the REST client.
func NewPolygonDownloaderWithLister(aggs AggsLister, log *logger.Logger) *PolygonDownloader {
	return &PolygonDownloader{
		aggs:   aggs,
		logger: log.Named("polygon"),
	}
}

// Download implements Downloader. Progress is reported as elapsed time
// through the requested range.
func (d *PolygonDownloader) Download(ctx context.Context, req Request, handle BarHandler, onProgress OnProgress) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     req.Ticker,
		Multiplier: req.Interval.Multiplier(),
		Timespan:   req.Interval.Timespan(),
		From:       models.Millis(req.Start),
		To:         models.Millis(req.End),
	}.WithLimit(polygonPageLimit)

	total := req.End.Sub(req.Start).Seconds()
	message := fmt.Sprintf("Downloading %s from Polygon", req.Ticker)
	it := d.aggs.ListAggs(ctx, params)
	handled := 0

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return handled, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", err)
		}

		agg := it.Item()
		at := time.Time(agg.Timestamp).UTC()

		bar := types.Bar{
			Time:   at,
			Symbol: req.Ticker,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err := handle(bar); err != nil {
			return handled, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to handle bar", err)
		}

		handled++

		if handled%1000 == 0 {
			progress(onProgress, at.Sub(req.Start).Seconds(), total, message)
		}
	}

	if err := it.Err(); err != nil {
		return handled, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to list aggregates for %s", req.Ticker)
	}

	progress(onProgress, total, total, message)
	d.logger.Info("Download finished",
		zap.String("ticker", req.Ticker),
		zap.Int("bars", handled),
	)

	return handled, nil
}
