package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.False(logger.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	logger, err := NewLoggerWithLevel("debug")
	suite.Require().NoError(err)
	suite.True(logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLoggerWithLevel("chatty")
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestNamedCarriesFields() {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := &Logger{Logger: zap.New(core)}

	logger.Named("engine").Info("position opened", zap.String("symbol", "BTCUSDT"))

	entries := logs.All()
	suite.Require().Len(entries, 1)
	suite.Equal("engine", entries[0].LoggerName)
	suite.Equal("BTCUSDT", entries[0].ContextMap()["symbol"])
}

func (suite *LoggerTestSuite) TestNamedOnNilLogger() {
	var logger *Logger

	// Should not panic
	logger.Named("engine").Info("dropped")
	NewNopLogger().Named("x").Debug("dropped")
}
