package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(CodeInvalidInput, "latitude out of range", base)

	require.True(t, IsCode(err, CodeInvalidInput))
	require.False(t, IsCode(err, CodeNotFound))
	require.ErrorIs(t, err, base)
	require.Equal(t, "latitude out of range: boom", err.Error())

	wrapped := fmt.Errorf("predict: %w", err)
	require.True(t, IsCode(wrapped, CodeInvalidInput))
	require.Equal(t, "latitude out of range", Reason(wrapped))
}

func TestReasonPlainError(t *testing.T) {
	require.Equal(t, "", Reason(nil))
	require.Equal(t, "plain", Reason(errors.New("plain")))
}
