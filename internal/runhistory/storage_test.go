package runhistory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndListRuns(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordRun(RunRecord{
		StartedAt: "2026-07-31T09:00:00Z",
		EndedAt:   "2026-07-31T09:05:00Z",
		TasksJSON: `["Fight","Recruit"]`,
		Outcome:   "completed",
	}))
	require.NoError(t, s.RecordRun(RunRecord{
		StartedAt: "2026-07-31T10:00:00Z",
		Outcome:   "stopped",
	}))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "stopped", runs[0].Outcome)
	assert.Equal(t, "completed", runs[1].Outcome)
}

func TestRecordAndListUpdates(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordUpdate(UpdateRecord{
		Kind:   "client",
		Result: "ClientSuccess",
		Version: "v5.13.1",
	}))

	updates, err := s.RecentUpdates(10)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "ClientSuccess", updates[0].Result)
}

func TestRecentRunsRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRun(RunRecord{Outcome: "completed"}))
	}

	runs, err := s.RecentRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
