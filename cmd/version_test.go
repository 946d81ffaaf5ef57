package cmd

import (
	"bytes"
	"runtime/debug"
	"testing"
)

func TestWriteVersion(t *testing.T) {
	var out bytes.Buffer
	writeVersion(&out, "v0.3.0", &debug.BuildInfo{
		GoVersion: "go1.25.6",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "4f2c9e1"},
			{Key: "vcs.modified", Value: "true"},
		},
	})
	want := "quizgen v0.3.0\ngo: go1.25.6\ncommit: 4f2c9e1 (modified)\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	out.Reset()
	writeVersion(&out, "(devel)", nil)
	if out.String() != "quizgen (devel)\n" {
		t.Errorf("output without build info = %q", out.String())
	}
}
