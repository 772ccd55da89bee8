package feed

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

// Provider names a market data vendor.
type Provider string

const (
	ProviderBinance Provider = "binance"
	ProviderPolygon Provider = "polygon"
)

// Interval is a bar width in exchange notation.
type Interval string

const (
	IntervalOneMinute      Interval = "1m"
	IntervalThreeMinutes   Interval = "3m"
	IntervalFiveMinutes    Interval = "5m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalThirtyMinutes  Interval = "30m"
	IntervalOneHour        Interval = "1h"
	IntervalTwoHours       Interval = "2h"
	IntervalFourHours      Interval = "4h"
	IntervalSixHours       Interval = "6h"
	IntervalEightHours     Interval = "8h"
	IntervalTwelveHours    Interval = "12h"
	IntervalOneDay         Interval = "1d"
	IntervalThreeDays      Interval = "3d"
	IntervalOneWeek        Interval = "1w"
	IntervalOneMonth       Interval = "1M"
)

type intervalSpec struct {
	multiplier int
	timespan   models.Timespan
	duration   time.Duration
}

var intervals = map[Interval]intervalSpec{
	IntervalOneMinute:      {1, models.Minute, time.Minute},
	IntervalThreeMinutes:   {3, models.Minute, 3 * time.Minute},
	IntervalFiveMinutes:    {5, models.Minute, 5 * time.Minute},
	IntervalFifteenMinutes: {15, models.Minute, 15 * time.Minute},
	IntervalThirtyMinutes:  {30, models.Minute, 30 * time.Minute},
	IntervalOneHour:        {1, models.Hour, time.Hour},
	IntervalTwoHours:       {2, models.Hour, 2 * time.Hour},
	IntervalFourHours:      {4, models.Hour, 4 * time.Hour},
	IntervalSixHours:       {6, models.Hour, 6 * time.Hour},
	IntervalEightHours:     {8, models.Hour, 8 * time.Hour},
	IntervalTwelveHours:    {12, models.Hour, 12 * time.Hour},
	IntervalOneDay:         {1, models.Day, 24 * time.Hour},
	IntervalThreeDays:      {3, models.Day, 72 * time.Hour},
	IntervalOneWeek:        {1, models.Week, 7 * 24 * time.Hour},
	IntervalOneMonth:       {1, models.Month, 30 * 24 * time.Hour},
}

// Valid reports whether i is a supported interval.
func (i Interval) Valid() bool {
	_, ok := intervals[i]

	return ok
}

// Multiplier and Timespan give the aggregate form of the interval.
func (i Interval) Multiplier() int {
	return intervals[i].multiplier
}

func (i Interval) Timespan() models.Timespan {
	return intervals[i].timespan
}

// Duration is the nominal bar width; months count as 30 days.
func (i Interval) Duration() time.Duration {
	return intervals[i].duration
}

// Request describes one historical download.
type Request struct {
	Provider Provider  `json:"provider" yaml:"provider" validate:"required,oneof=binance polygon"`
	Ticker   string    `json:"ticker" yaml:"ticker" validate:"required"`
	Start    time.Time `json:"start" yaml:"start" validate:"required"`
	End      time.Time `json:"end" yaml:"end" validate:"required"`
	Interval Interval  `json:"interval" yaml:"interval" validate:"required"`
	// APIKey is required by polygon only
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" validate:"required_if=Provider polygon"`
}

// Validate checks the request fields and that the range is not empty.
func (r Request) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid download request", err)
	}

	if !r.Interval.Valid() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported interval: %s", r.Interval)
	}

	if !r.End.After(r.Start) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end must be after start")
	}

	return nil
}

// BarHandler receives each downloaded bar in time order.
type BarHandler func(bar types.Bar) error

// OnProgress reports how far a download has come, current out of total.
type OnProgress func(current, total float64, message string)

// Downloader fetches a historical range of bars.
type Downloader interface {
	// Download fetches the requested range and hands every bar to handle.
	// It returns the number of bars handled.
	Download(ctx context.Context, req Request, handle BarHandler, onProgress OnProgress) (int, error)
}

// NewDownloader returns the downloader for req.Provider.
func NewDownloader(req Request, log *logger.Logger) (Downloader, error) {
	switch req.Provider {
	case ProviderBinance:
		return NewBinanceDownloader(log), nil
	case ProviderPolygon:
		return NewPolygonDownloader(req.APIKey, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", req.Provider)
	}
}

func progress(onProgress OnProgress, current, total float64, message string) {
	if onProgress != nil {
		onProgress(current, total, message)
	}
}
