package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maa-se/internal/taskqueue"
)

func TestSetThenGetRoundTrips(t *testing.T) {
	m := NewManager(t.TempDir())

	in := AdbSettings{AdbPath: "adb", Address: "127.0.0.1:5555"}
	require.NoError(t, m.Set("default", "Adb", in))

	var out AdbSettings
	ok, err := m.Get("default", "Adb", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGetMissingValueReportsNotOkWithoutError(t *testing.T) {
	m := NewManager(t.TempDir())
	var out AdbSettings
	ok, err := m.Get("default", "Adb", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetToleratesMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "default"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default", "settings.json"), []byte("{not json"), 0o644))

	m := NewManager(dir)
	var out AdbSettings
	ok, err := m.Get("default", "Adb", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnrecognizedNameIsRejected(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Get("default", "NotARealTask", &struct{}{})
	assert.Error(t, err)
}

func TestStorageNamesRoundTrip(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, m.Set("default", "Tool(my-recruit-preset)", map[string]int{"n": 3}))

	var out map[string]int
	ok, err := m.Get("default", "Tool(my-recruit-preset)", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, out["n"])
}

func TestSetOverwritesWholeEntryNotMerge(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, m.Set("default", "Fight", map[string]any{"enable": true, "stage": "1-7"}))
	require.NoError(t, m.Set("default", "Fight", map[string]any{"enable": true}))

	var out map[string]any
	ok, err := m.Get("default", "Fight", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	_, hasStage := out["stage"]
	assert.False(t, hasStage)
}

func TestDailyTasksPreservesFileKeyOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "default"), 0o755))
	raw := `{"Recruit":{"enable":true},"Fight":{"enable":true},"Mall":{"enable":false}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default", "daily.json"), []byte(raw), 0o644))

	m := NewManager(dir)
	entries, order, err := m.DailyTasks("default")
	require.NoError(t, err)
	assert.Equal(t, []string{"Recruit", "Fight", "Mall"}, order)
	assert.True(t, entries["Fight"].Enable)
	assert.False(t, entries["Mall"].Enable)
}

func TestDailyTasksMissingFileYieldsEmpty(t *testing.T) {
	m := NewManager(t.TempDir())
	entries, order, err := m.DailyTasks("default")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, order)
}

func TestDumpRendersEveryKind(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, m.Set("default", "Adb", AdbSettings{AdbPath: "adb", Address: "127.0.0.1:5555"}))
	require.NoError(t, m.Set("default", "Fight", taskqueue.Parameters{Enable: true}))

	dump, err := m.Dump("default")
	require.NoError(t, err)

	var out map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(dump), &out))
	assert.Contains(t, out["settings"], "Adb")
	assert.Contains(t, out["daily"], "Fight")
	assert.Contains(t, out, "extra_task")
	assert.Contains(t, out, "tool_storage")
	assert.Contains(t, out, "custom_storage")
}
