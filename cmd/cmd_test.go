package cmd

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/picking-reports/internal/validation"
)

func TestParseCutDate(t *testing.T) {
	d, err := parseCutDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	today, err := parseCutDate("")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), today.Format("2006-01-02"))

	_, err = parseCutDate("05/03/2024")
	assert.Error(t, err)
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrap: %w", &validation.MissingColumnError{Columns: []string{"Origen"}}), "missing_column"},
		{fmt.Errorf("wrap: %w", validation.ErrEmptyInput), "empty_input"},
		{fmt.Errorf("wrap: %w", context.Canceled), "canceled"},
		{fmt.Errorf("disk full"), "processing"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, errorType(tt.err))
		})
	}
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("WARN", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = newLogger("info", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
