package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// resetLogger puts the package back into its uninitialized state and routes
// output into the returned buffer.
func resetLogger(level string) *bytes.Buffer {
	defaultLogger = nil
	once = *new(sync.Once)
	Init(level)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColorEnable(false)
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := resetLogger("warn")

	Debugf("drop debug")
	Infof("drop info")
	Warnf("keep warn")
	Errorf("keep error")

	out := buf.String()
	if strings.Contains(out, "drop debug") || strings.Contains(out, "drop info") {
		t.Errorf("messages below the level leaked through: %q", out)
	}
	if !strings.Contains(out, "[WARN] keep warn") {
		t.Errorf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR] keep error") {
		t.Errorf("error message missing: %q", out)
	}
}

func TestSetLevel(t *testing.T) {
	buf := resetLogger("error")

	Infof("before")
	SetLevel("debug")
	Debugf("after %d", 42)

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("info logged at error level: %q", out)
	}
	if !strings.Contains(out, "[DEBUG] after 42") {
		t.Errorf("debug message missing after SetLevel: %q", out)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	buf := resetLogger("verbose")

	Debugf("hidden")
	Infof("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug logged at default level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info message missing: %q", out)
	}
}

func TestColorOutput(t *testing.T) {
	buf := resetLogger("info")
	SetColorEnable(true)

	Infof("tinted")
	if !strings.Contains(buf.String(), "\033[32m[INFO]\033[0m tinted") {
		t.Errorf("expected colored info prefix: %q", buf.String())
	}

	buf.Reset()
	SetColorEnable(false)
	Infof("plain")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("color codes present after disabling: %q", buf.String())
	}
}
