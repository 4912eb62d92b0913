package eventrouter

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestSeverityTable(t *testing.T) {
	cases := []struct {
		code  Code
		level slog.Level
	}{
		{InternalError, slog.LevelError},
		{InitFailed, slog.LevelError},
		{Unknown, slog.LevelError},
		{Destroyed, slog.LevelWarn},
		{AllTasksCompleted, slog.LevelInfo},
		{TaskChainStart, slog.LevelInfo},
		{AsyncCallInfo, slog.LevelDebug},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, Severity(c.code, ""), "code %s", c.code)
	}
}

func TestConnectionInfoSubTable(t *testing.T) {
	assert.Equal(t, slog.LevelError, Severity(ConnectionInfo, `{"what":"UnsupportedResolution"}`))
	assert.Equal(t, slog.LevelWarn, Severity(ConnectionInfo, `{"what":"Reconnecting"}`))
	assert.Equal(t, slog.LevelInfo, Severity(ConnectionInfo, `{"what":"Connected"}`))
	assert.Equal(t, slog.LevelDebug, Severity(ConnectionInfo, `{"what":"Others"}`))
	assert.Equal(t, slog.LevelDebug, Severity(ConnectionInfo, `not json`))
}

func TestNarrateTaskChain(t *testing.T) {
	line, err := Narrate(TaskChainStart, `{"taskchain":"Fight"}`)
	require.NoError(t, err)
	assert.Equal(t, "开始任务：刷理智", line)

	line, err = Narrate(TaskChainCompleted, `{"taskchain":"Mall"}`)
	require.NoError(t, err)
	assert.Equal(t, "任务完成：信用点及购物", line)
}

func TestNarrateSubTaskProcessTask(t *testing.T) {
	line, err := Narrate(SubTaskStart, `{"subtask":"ProcessTask","details":{"task":"StartButton2"}}`)
	require.NoError(t, err)
	assert.Equal(t, "开始战斗", line)

	line, err = Narrate(SubTaskStart, `{"subtask":"ProcessTask","details":{"task":"Unrecognized"}}`)
	require.NoError(t, err)
	assert.Empty(t, line)

	line, err = Narrate(SubTaskStart, `{"subtask":"SomethingElse","details":{}}`)
	require.NoError(t, err)
	assert.Empty(t, line)
}

func TestNarrateStageDrops(t *testing.T) {
	line, err := Narrate(SubTaskExtraInfo, `{"what":"StageDrops","details":{"stage":{"stageCode":"1-7"},"stars":3,"stats":[{"itemName":"龙门币","quantity":500,"addQuantity":0}]}}`)
	require.NoError(t, err)
	assert.True(t, strings.Contains(line, "1-7"))
	assert.True(t, strings.Contains(line, "龙门币"))
}

func TestNarrationParseErrorNonFatal(t *testing.T) {
	_, err := Narrate(TaskChainStart, `not json`)
	assert.Error(t, err)
}

func TestRouterLogsExactlyOneRecordPerEvent(t *testing.T) {
	logger, buf := newTestLogger()
	var narrated []string
	r := New(logger, func(line string) { narrated = append(narrated, line) })

	r.Callback(int32(TaskChainStart), `{"taskchain":"Fight"}`)

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	assert.Equal(t, 1, lines)
	assert.Equal(t, []string{"开始任务：刷理智"}, narrated)
}

func TestRouterCallbackNeverPanics(t *testing.T) {
	logger, _ := newTestLogger()
	r := New(logger, nil)
	assert.NotPanics(t, func() {
		r.Callback(999999, `{"malformed`)
	})
}

func TestStopBusBroadcastsToMultipleConsumers(t *testing.T) {
	bus := NewStopBus()
	c1 := bus.Chan()
	c2 := bus.Chan()

	bus.Signal()

	select {
	case <-c1:
	default:
		t.Fatal("consumer 1 did not observe signal")
	}
	select {
	case <-c2:
	default:
		t.Fatal("consumer 2 did not observe signal")
	}

	bus.Reset()
	select {
	case <-bus.Chan():
		t.Fatal("channel should be fresh after reset")
	default:
	}
}
