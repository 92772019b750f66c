// Package logging configures the global logrus logger for gptrans.
//
// Three output styles are supported: human-readable text (default), JSON
// lines for machine consumption, and GitHub Actions workflow commands so
// that notices and errors show up as annotations in the job summary.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Options controls Setup.
type Options struct {
	// Verbose enables debug-level messages.
	Verbose bool
	// JSON selects the JSON formatter.
	JSON bool
	// Actions selects the GitHub Actions workflow-command formatter.
	Actions bool
	// Output is the destination; nil means os.Stderr.
	Output io.Writer
}

// InActions reports whether the process runs inside a GitHub Actions job.
func InActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Setup configures the global logrus logger. The most recent call wins.
func Setup(opts Options) {
	var formatter log.Formatter
	switch {
	case opts.Actions:
		formatter = &ActionsFormatter{}
	case opts.JSON:
		formatter = &log.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	default:
		formatter = &log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
		}
	}
	log.SetFormatter(formatter)

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
}

// ---------------------------------------------------------------------------
// GitHub Actions formatter
// ---------------------------------------------------------------------------

// ActionsFormatter renders entries as workflow commands:
// ::debug::, ::notice::, ::warning:: and ::error::. Info-level entries are
// printed as plain lines, matching core.info.
type ActionsFormatter struct{}

// Format implements logrus.Formatter.
func (f *ActionsFormatter) Format(e *log.Entry) ([]byte, error) {
	msg := e.Message
	if fields := formatFields(e.Data); fields != "" {
		msg += " " + fields
	}
	msg = escapeData(msg)

	var line string
	switch e.Level {
	case log.DebugLevel, log.TraceLevel:
		line = "::debug::" + msg
	case log.InfoLevel:
		line = msg
	case log.WarnLevel:
		line = "::warning::" + msg
	default:
		line = "::error::" + msg
	}
	return []byte(line + "\n"), nil
}

// Notice logs msg as a ::notice:: annotation under Actions, or as a
// warning elsewhere.
func Notice(logger log.FieldLogger, msg string) {
	if _, ok := currentFormatter().(*ActionsFormatter); ok {
		fmt.Fprintln(log.StandardLogger().Out, "::notice::"+escapeData(msg))
		return
	}
	logger.Warn(msg)
}

func currentFormatter() log.Formatter {
	return log.StandardLogger().Formatter
}

func formatFields(data log.Fields) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// escapeData escapes characters that terminate a workflow command.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
