package audit

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordThenRecentReturnsNewestFirst(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	a, err := Open(logger, t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	a.Record("run_daily", true, "")
	a.Record("stop_core", true, "")
	a.Record("update", false, "network error")

	entries := a.Recent(10)
	require.Len(t, entries, 3)
	assert.Equal(t, "update", entries[0].Command)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "stop_core", entries[1].Command)
	assert.Equal(t, "run_daily", entries[2].Command)
}

func TestRecentRespectsLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	a, err := Open(logger, t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	for i := 0; i < 5; i++ {
		a.Record("get_config", true, "")
	}

	assert.Len(t, a.Recent(2), 2)
}
