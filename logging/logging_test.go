package logging

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreStandardLogger(t *testing.T) {
	t.Helper()
	std := log.StandardLogger()
	out, formatter, level := std.Out, std.Formatter, std.Level
	t.Cleanup(func() {
		std.SetOutput(out)
		std.SetFormatter(formatter)
		std.SetLevel(level)
	})
}

func TestSetupLevelsAndFormatters(t *testing.T) {
	restoreStandardLogger(t)

	var buf bytes.Buffer
	Setup(Options{Output: &buf})
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)

	Setup(Options{Verbose: true, JSON: true, Output: &buf})
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	Setup(Options{JSON: true, Actions: true, Output: &buf})
	assert.IsType(t, &ActionsFormatter{}, log.StandardLogger().Formatter, "actions wins over json")
}

func TestActionsFormatter(t *testing.T) {
	f := &ActionsFormatter{}
	cases := []struct {
		level log.Level
		want  string
	}{
		{log.DebugLevel, "::debug::hello\n"},
		{log.InfoLevel, "hello\n"},
		{log.WarnLevel, "::warning::hello\n"},
		{log.ErrorLevel, "::error::hello\n"},
	}
	for _, tc := range cases {
		out, err := f.Format(&log.Entry{Level: tc.level, Message: "hello", Data: log.Fields{}})
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(out), tc.level.String())
	}
}

func TestActionsFormatterEscapesAndFields(t *testing.T) {
	f := &ActionsFormatter{}
	out, err := f.Format(&log.Entry{
		Level:   log.ErrorLevel,
		Message: "line one\nline two 100%",
		Data:    log.Fields{"chunk": 2, "a": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "::error::line one%0Aline two 100%25 (a=b chunk=2)\n", string(out))
}

func TestNotice(t *testing.T) {
	restoreStandardLogger(t)

	var buf bytes.Buffer
	Setup(Options{Actions: true, Output: &buf})
	Notice(log.StandardLogger(), "check\nthis")
	assert.Equal(t, "::notice::check%0Athis\n", buf.String())

	buf.Reset()
	Setup(Options{Output: &buf})
	Notice(log.StandardLogger(), "plain")
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "plain")
}

func TestInActions(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "true")
	assert.True(t, InActions())
	t.Setenv("GITHUB_ACTIONS", "")
	assert.False(t, InActions())
}
