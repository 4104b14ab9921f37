package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNew() {
	err := New(ErrCodeInvalidConfiguration, "bad config")
	suite.Equal(ErrCodeInvalidConfiguration, err.Code)
	suite.Equal("bad config", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[101] bad config", err.Error())
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeMissingData, "no history loaded for symbol %s", "AAPL")
	suite.Equal(ErrCodeMissingData, err.Code)
	suite.Equal("no history loaded for symbol AAPL", err.Message)
}

func (suite *ErrorTestSuite) TestWrap() {
	cause := fmt.Errorf("disk on fire")
	err := Wrap(ErrCodeQueryFailed, "failed to execute query", cause)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal(cause, err.Unwrap())
	suite.Contains(err.Error(), "disk on fire")
}

func (suite *ErrorTestSuite) TestGetCode() {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{
			name:     "structured error",
			err:      New(ErrCodeNoData, "empty"),
			expected: ErrCodeNoData,
		},
		{
			name:     "wrapped structured error",
			err:      fmt.Errorf("outer: %w", New(ErrCodeNoData, "empty")),
			expected: ErrCodeNoData,
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("plain"),
			expected: ErrCodeUnknown,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.Equal(tt.expected, GetCode(tt.err))
		})
	}
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := Wrap(ErrCodeInvalidConfiguration, "bad parameters", fmt.Errorf("start after end"))
	suite.True(HasCode(err, ErrCodeInvalidConfiguration))
	suite.False(HasCode(err, ErrCodeNoData))
}
