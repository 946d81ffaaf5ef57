package cmd

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("quiz generated", "topic", "owls")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1:\n%s", len(lines), buf.String())
	}
	if !gjson.Valid(lines[0]) {
		t.Fatalf("log line is not JSON: %q", lines[0])
	}
	if msg := gjson.Get(lines[0], "msg").String(); msg != "quiz generated" {
		t.Errorf("msg = %q", msg)
	}
	if topic := gjson.Get(lines[0], "topic").String(); topic != "owls" {
		t.Errorf("topic = %q", topic)
	}
}

func TestLogsGoToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	versionCmd.SetOut(&stdout)
	versionCmd.SetErr(&stderr)
	t.Cleanup(func() {
		versionCmd.SetOut(nil)
		versionCmd.SetErr(nil)
	})

	newLogger(versionCmd.ErrOrStderr(), slog.LevelInfo).Info("starting")
	if stdout.Len() != 0 {
		t.Errorf("stdout got log output: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), `"msg":"starting"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}
