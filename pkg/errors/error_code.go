package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidQuantity      ErrorCode = 102
	ErrCodeInvalidStrike        ErrorCode = 103
	ErrCodeInvalidHorizon       ErrorCode = 104
	ErrCodeInsufficientData     ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeMissingData ErrorCode = 200
	ErrCodeNoData      ErrorCode = 201
	ErrCodeDataParse   ErrorCode = 202
	ErrCodeQueryFailed ErrorCode = 203

	// Model errors (300-399)
	ErrCodeModelNotCalibrated ErrorCode = 300
	ErrCodeModelCalibration   ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyNotInitialized ErrorCode = 400
	ErrCodePositionNotFound       ErrorCode = 401

	// Backtest errors (500-599)
	ErrCodeBacktestStoreFailed ErrorCode = 500
	ErrCodeBacktestReport      ErrorCode = 501
)
