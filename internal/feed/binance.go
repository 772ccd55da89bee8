package feed

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// binancePageSize is the largest page the klines endpoint serves.
const binancePageSize = 1000

// KlineFetcher is the REST klines endpoint.
type KlineFetcher interface {
	Klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*binance.Kline, error)
}

// KlineStreamService is the kline websocket.
type KlineStreamService interface {
	WsKlineServe(symbol, interval string, handler binance.WsKlineHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)
}

type restKlines struct {
	client *binance.Client
}

func (r restKlines) Klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*binance.Kline, error) {
	return r.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start).
		EndTime(end).
		Limit(limit).
		Do(ctx)
}

type wsKlines struct{}

func (wsKlines) WsKlineServe(symbol, interval string, handler binance.WsKlineHandler, errHandler binance.ErrHandler) (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(symbol, interval, handler, errHandler)
}

// BinanceOption customises a BinanceDownloader or BinanceStream.
type BinanceOption func(*binanceOptions)

type binanceOptions struct {
	klines KlineFetcher
	stream KlineStreamService
}

// WithKlineFetcher replaces the REST client.
func WithKlineFetcher(klines KlineFetcher) BinanceOption {
	return func(o *binanceOptions) {
		o.klines = klines
	}
}

// WithKlineStream replaces the websocket client.
func WithKlineStream(stream KlineStreamService) BinanceOption {
	return func(o *binanceOptions) {
		o.stream = stream
	}
}

func newBinanceOptions(opts []BinanceOption) binanceOptions {
	o := binanceOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.klines == nil {
		o.klines = restKlines{client: binance.NewClient("", "")}
	}

	if o.stream == nil {
		o.stream = wsKlines{}
	}

	return o
}

// BinanceDownloader pages through the public klines endpoint.
type BinanceDownloader struct {
	klines KlineFetcher
	logger *logger.Logger
}

func NewBinanceDownloader(log *logger.Logger, opts ...BinanceOption) *BinanceDownloader {
	o := newBinanceOptions(opts)

	return &BinanceDownloader{
		klines: o.klines,
		logger: log.Named("binance"),
	}
}

// Download implements Downloader. Bars are stamped with the kline open time.
func (d *BinanceDownloader) Download(ctx context.Context, req Request, handle BarHandler, onProgress OnProgress) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	startMillis := req.Start.UnixMilli()
	endMillis := req.End.UnixMilli()
	current := startMillis
	handled := 0
	message := fmt.Sprintf("Downloading %s klines from Binance", req.Ticker)

	for current < endMillis {
		if err := ctx.Err(); err != nil {
			return handled, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", err)
		}

		klines, err := d.klines.Klines(ctx, req.Ticker, string(req.Interval), current, endMillis, binancePageSize)
		if err != nil {
			return handled, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s", req.Ticker)
		}

		for _, k := range klines {
			bar, err := barFromKline(req.Ticker, k)
			if err != nil {
				return handled, err
			}

			if err := handle(bar); err != nil {
				return handled, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to handle bar", err)
			}

			handled++
		}

		progress(onProgress, float64(current-startMillis), float64(endMillis-startMillis), message)

		if len(klines) < binancePageSize {
			break
		}

		// resume one millisecond after the last close to avoid duplicates
		current = klines[len(klines)-1].CloseTime + 1
	}

	progress(onProgress, float64(endMillis-startMillis), float64(endMillis-startMillis), message)
	d.logger.Info("Download finished",
		zap.String("ticker", req.Ticker),
		zap.Int("bars", handled),
	)

	return handled, nil
}

// BinanceStream turns the kline websocket into a sequence of closed bars.
type BinanceStream struct {
	ws     KlineStreamService
	logger *logger.Logger
}

func NewBinanceStream(log *logger.Logger, opts ...BinanceOption) *BinanceStream {
	o := newBinanceOptions(opts)

	return &BinanceStream{
		ws:     o.stream,
		logger: log.Named("binance_stream"),
	}
}

// Stream yields one bar per finalised kline until ctx is cancelled, the
// socket closes or the consumer stops. In-progress klines are skipped.
func (s *BinanceStream) Stream(ctx context.Context, symbol string, interval Interval) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		if !interval.Valid() {
			yield(types.Bar{}, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported interval: %s", interval))

			return
		}

		type item struct {
			bar types.Bar
			err error
		}

		items := make(chan item, 64)
		quit := make(chan struct{})

		defer close(quit)

		send := func(it item) {
			select {
			case items <- it:
			case <-quit:
			}
		}

		handler := func(event *binance.WsKlineEvent) {
			if event == nil || !event.Kline.IsFinal {
				return
			}

			bar, err := barFromWsKline(symbol, event.Kline)
			send(item{bar: bar, err: err})
		}

		errHandler := func(err error) {
			send(item{err: errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "kline stream error", err)})
		}

		doneC, stopC, err := s.ws.WsKlineServe(symbol, string(interval), handler, errHandler)
		if err != nil {
			yield(types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to subscribe to %s klines", symbol))

			return
		}

		defer close(stopC)

		s.logger.Info("Kline stream started",
			zap.String("symbol", symbol),
			zap.String("interval", string(interval)),
		)

		for {
			select {
			case <-ctx.Done():
				return
			case <-doneC:
				// drain what the socket delivered before closing
				for {
					select {
					case it := <-items:
						if !yield(it.bar, it.err) {
							return
						}
					default:
						return
					}
				}
			case it := <-items:
				if !yield(it.bar, it.err) {
					return
				}
			}
		}
	}
}

func barFromKline(symbol string, k *binance.Kline) (types.Bar, error) {
	return parseBar(symbol, time.UnixMilli(k.OpenTime), k.Open, k.High, k.Low, k.Close, k.Volume)
}

func barFromWsKline(symbol string, k binance.WsKline) (types.Bar, error) {
	if k.Symbol != "" {
		symbol = k.Symbol
	}

	return parseBar(symbol, time.UnixMilli(k.StartTime), k.Open, k.High, k.Low, k.Close, k.Volume)
}

func parseBar(symbol string, at time.Time, fields ...string) (types.Bar, error) {
	values := make([]float64, len(fields))

	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", field)
		}

		values[i] = value
	}

	return types.Bar{
		Time:   at.UTC(),
		Symbol: symbol,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}
