package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/v0xg/hatter/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "hatter"}, zapcore.AddSync(&buf))
	logger.Named("executor").Debug("Step", zap.Int("step", 2))

	out := buf.String()
	assert.Contains(t, out, `"level":"DEBUG"`)
	assert.Contains(t, out, `"logger":"hatter.executor"`)
	assert.Contains(t, out, `"step":2`)
}

func TestNewLogger_Console(t *testing.T) {
	for name, tc := range map[string]struct {
		color bool
		want  string
	}{
		"plain":  {false, "WARN"},
		"colour": {true, "\x1b[33mWARN\x1b[0m"},
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(config.LoggerConfig{Level: "info", Format: "console", Color: tc.color}, zapcore.AddSync(&buf))
			logger.Warn("careful")
			logger.Debug("hidden")

			out := buf.String()
			assert.Contains(t, out, tc.want)
			assert.Contains(t, out, "careful")
			assert.NotContains(t, out, "hidden")
		})
	}
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInstall(t *testing.T) {
	prev := GetLogger()
	defer Install(prev)

	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	Install(logger)
	assert.Same(t, logger, GetLogger())
	assert.Same(t, logger, zap.L())

	zap.L().Info("hello")
	Sync()
	assert.Contains(t, buf.String(), "hello")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.ObserveRun(true, time.Second)
	m.ObserveRun(false, 2*time.Second)
	m.IncCommandFailure("click")
	m.IncCommandFailure("click")
	m.IncUnknownCommand()
	m.ObserveChallengeRounds(3)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]int{}
	for i, mf := range families {
		byName[mf.GetName()] = i
	}

	failures := families[byName["hatter_executor_command_failures_total"]]
	require.Len(t, failures.GetMetric(), 1)
	assert.Equal(t, 2.0, failures.GetMetric()[0].GetCounter().GetValue())

	unknown := families[byName["hatter_executor_unknown_commands_total"]]
	assert.Equal(t, 1.0, unknown.GetMetric()[0].GetCounter().GetValue())

	active := families[byName["hatter_browser_sessions_active"]]
	assert.Equal(t, 1.0, active.GetMetric()[0].GetGauge().GetValue())

	runs := families[byName["hatter_executor_run_duration_seconds"]]
	assert.Len(t, runs.GetMetric(), 2)

	again := MustNewMetrics(reg)
	assert.Same(t, m.commandFailures, again.commandFailures)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRun(true, time.Second)
		m.IncCommandFailure("x")
		m.IncUnknownCommand()
		m.ObserveChallengeRounds(1)
		m.ObserveScrape(false, time.Second)
		m.SessionOpened()
		m.SessionClosed()
	})
}
