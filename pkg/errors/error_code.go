package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeUnknownVariant       ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeVersionMismatch      ErrorCode = 105
	ErrCodeDuplicateVariant     ErrorCode = 106

	// Data errors (200-299)
	ErrCodeEmptyData             ErrorCode = 200
	ErrCodeInsufficientData      ErrorCode = 201
	ErrCodeDataSourceUnavailable ErrorCode = 202
	ErrCodeQueryFailed           ErrorCode = 203

	// Runtime errors (300-399)
	ErrCodeStrategyRuntimeError ErrorCode = 300
	ErrCodeRiskRuntimeError     ErrorCode = 301

	// State errors (400-499)
	ErrCodeInvalidState       ErrorCode = 400
	ErrCodeSimulationNotFound ErrorCode = 401
	ErrCodePositionNotFound   ErrorCode = 402

	// Market data errors (500-599)
	ErrCodeMarketDataFetchFailed ErrorCode = 500
	ErrCodeMarketDataWriteFailed ErrorCode = 501
	ErrCodeMarketDataParseFailed ErrorCode = 502
	ErrCodeInvalidProvider       ErrorCode = 503

	// Persistence errors (600-699)
	ErrCodeWriterFailed  ErrorCode = 600
	ErrCodeJournalFailed ErrorCode = 601
)
