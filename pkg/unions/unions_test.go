package unions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase int

func (c testCase) String() string {
	switch c {
	case 0:
		return "Dot"
	case 1:
		return "Circle"
	default:
		return fmt.Sprintf("testCase(%d)", int(c))
	}
}

func TestWrongCase(t *testing.T) {
	err := WrongCase("Shape", testCase(1), testCase(0))

	assert.EqualError(t, err, "unions: cannot get Circle from Shape Dot")
	assert.True(t, errors.Is(err, ErrWrongCase))

	var wrong *WrongCaseError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &wrong))
	assert.Equal(t, testCase(0), wrong.Got)
	assert.Equal(t, testCase(1), wrong.Want)
}

func TestInvalidCaseIsNotWrongCase(t *testing.T) {
	err := InvalidCase("Shape", testCase(7))

	assert.EqualError(t, err, "unions: invalid Shape case testCase(7)")
	assert.False(t, errors.Is(err, ErrWrongCase))
}

func TestMissingFallback(t *testing.T) {
	err := MissingFallback("Shape", testCase(1))
	assert.EqualError(t, err, "unions: no Shape handler for case Circle and no fallback")
}
