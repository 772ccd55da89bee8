package stats

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/stretchr/testify/suite"
)

type StatsTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func (s *StatsTestSuite) SetupSuite() {
	s.logger = logger.NewNopLogger()
}

func TestStatsTestSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func trade(pnl, fee float64, held time.Duration) types.Trade {
	return types.Trade{
		ID:            "t",
		Symbol:        "BTCUSDT",
		Direction:     types.DirectionLong,
		RealizedPnL:   pnl,
		Fee:           fee,
		ExitReason:    types.ExitReasonSignal,
		HoldingPeriod: held,
	}
}

func (s *StatsTestSuite) TestEmpty() {
	acc := NewAccumulator(10000, s.logger)

	s.Equal(10000.0, acc.CurrentCapital())
	s.Equal(10000.0, acc.PeakCapital())
	s.Equal(0.0, acc.MaxDrawdown())

	stats := acc.Stats()
	s.Equal(0, stats.NumberOfTrades)
	s.Equal(0.0, stats.WinRate)
	s.Equal(0.0, stats.SharpeRatio)
	s.Equal(0.0, stats.ProfitFactor)
	s.Equal(time.Duration(0), stats.AverageHoldingPeriod)
}

func (s *StatsTestSuite) TestCapitalLaw() {
	acc := NewAccumulator(10000, s.logger)
	pnls := []float64{120.1, -45.7, 0.3, -300.25, 88.8, 0.1, 0.2}

	sum := 0.0
	for _, pnl := range pnls {
		acc.Record(trade(pnl, 0, time.Minute))
		sum += pnl
	}

	s.InDelta(10000+sum, acc.CurrentCapital(), 1e-9)
	s.InDelta(sum, acc.Stats().TotalPnL, 1e-9)
}

func (s *StatsTestSuite) TestPeakAndDrawdown() {
	acc := NewAccumulator(1000, s.logger)

	acc.Record(trade(100, 0, time.Minute))
	s.Equal(1100.0, acc.PeakCapital())
	s.Equal(0.0, acc.MaxDrawdown())

	acc.Record(trade(-220, 0, time.Minute))
	s.Equal(1100.0, acc.PeakCapital())
	s.InDelta(0.2, acc.MaxDrawdown(), 1e-9)

	// recovery does not reduce the recorded drawdown
	acc.Record(trade(300, 0, time.Minute))
	s.Equal(1180.0, acc.PeakCapital())
	s.InDelta(0.2, acc.MaxDrawdown(), 1e-9)
}

func (s *StatsTestSuite) TestDrawdownNonDecreasing() {
	acc := NewAccumulator(5000, s.logger)
	pnls := []float64{-50, 80, -200, 10, -5, 400, -900, 30}

	previousPeak := acc.PeakCapital()
	previousDrawdown := acc.MaxDrawdown()

	for _, pnl := range pnls {
		acc.Record(trade(pnl, 0, time.Minute))

		s.GreaterOrEqual(acc.PeakCapital(), previousPeak)
		s.GreaterOrEqual(acc.MaxDrawdown(), previousDrawdown)
		s.Equal(math.Max(previousPeak, acc.CurrentCapital()), acc.PeakCapital())

		previousPeak = acc.PeakCapital()
		previousDrawdown = acc.MaxDrawdown()
	}
}

func (s *StatsTestSuite) TestStats() {
	acc := NewAccumulator(10000, s.logger)
	acc.Record(trade(200, 2, 10*time.Minute))
	acc.Record(trade(-100, 2, 20*time.Minute))
	acc.Record(trade(100, 2, 30*time.Minute))
	acc.Record(trade(0, 2, 40*time.Minute))

	stats := acc.Stats()
	s.Equal(4, stats.NumberOfTrades)
	s.Equal(2, stats.NumberOfWinningTrades)
	s.Equal(2, stats.NumberOfLosingTrades)
	s.InDelta(0.5, stats.WinRate, 1e-9)
	s.InDelta(200, stats.TotalPnL, 1e-9)
	s.InDelta(8, stats.TotalFees, 1e-9)
	s.InDelta(3, stats.ProfitFactor, 1e-9)
	s.InDelta(150, stats.AverageWin, 1e-9)
	s.InDelta(-50, stats.AverageLoss, 1e-9)
	s.Equal(200.0, stats.LargestWin)
	s.Equal(-100.0, stats.LargestLoss)
	s.Equal(25*time.Minute, stats.AverageHoldingPeriod)
	s.InDelta(0.02, stats.TotalReturn, 1e-9)
	s.NotZero(stats.SharpeRatio)
}

func (s *StatsTestSuite) TestSharpeRatio() {
	s.Equal(0.0, SharpeRatio(nil))
	s.Equal(0.0, SharpeRatio([]float64{0.01}))
	s.Equal(0.0, SharpeRatio([]float64{0.01, 0.01, 0.01}))

	// mean excess 0.01 - 0.02/252, sample std of {0.02, 0} is sqrt(0.0002)
	expected := math.Sqrt(252) * (0.01 - 0.02/252) / math.Sqrt(0.0002)
	s.InDelta(expected, SharpeRatio([]float64{0.02, 0}), 1e-9)

	s.Less(SharpeRatio([]float64{-0.02, -0.01}), 0.0)
}

func (s *StatsTestSuite) TestConcurrentRecord() {
	acc := NewAccumulator(1000, s.logger)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Record(trade(1, 0, time.Minute))
			_ = acc.Stats()
		}()
	}
	wg.Wait()

	s.Equal(50, acc.Stats().NumberOfTrades)
	s.InDelta(1050, acc.CurrentCapital(), 1e-9)
}
