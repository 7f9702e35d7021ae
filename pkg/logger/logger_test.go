package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Configure("text", LogLevelInfo, nil)
	SetOutput(&buf)
	t.Cleanup(func() {
		Configure("text", LogLevelInfo, nil)
		SetOutput(nil)
	})
	return &buf
}

func TestComponentLevelInheritance(t *testing.T) {
	buf := reset(t)
	SetComponentLevel(Engine, LogLevelDebug)

	Get(Notify).Debug("notification received", "msg", "sw_interface_event")
	Get(Bridging).Debug("should be filtered")

	out := buf.String()
	assert.Contains(t, out, "[engine.notify] notification received msg=sw_interface_event")
	assert.NotContains(t, out, "should be filtered")
}

func TestClearComponentLevel(t *testing.T) {
	buf := reset(t)
	SetComponentLevel(Watchdog, LogLevelError)
	Get(Watchdog).Warn("hidden")
	ClearComponentLevel(Watchdog)
	Get(Watchdog).Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN [watchdog] visible")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Configure("json", LogLevelDebug, nil)
	SetOutput(&buf)
	t.Cleanup(func() {
		Configure("text", LogLevelInfo, nil)
		SetOutput(nil)
	})

	Get(Bootstrap).Info("bridge domain created", "bd_id", 5678)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec))
	assert.Equal(t, "bootstrap", rec["component"])
	assert.Equal(t, "bridge domain created", rec["msg"])
	assert.EqualValues(t, 5678, rec["bd_id"])
}

func TestWithInterface(t *testing.T) {
	buf := reset(t)
	WithInterface(Get(Engine), 7, "tap0").Info("created")
	assert.Contains(t, buf.String(), "sw_if_index=7 interface=tap0")
}

func TestConfigureLevels(t *testing.T) {
	reset(t)
	Configure("text", LogLevelWarn, map[string]LogLevel{Main: LogLevelDebug})
	assert.Equal(t, LogLevelWarn, GetDefaultLevel())
	assert.Equal(t, map[string]LogLevel{Main: LogLevelDebug}, GetComponentLevels())
}
