package monitoring

import (
	"fmt"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	// Save original sink
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")

	if !called {
		t.Error("Custom logger was not called")
	}

	// Now set to nil and verify it doesn't call our logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}

func TestStdLogger_Prefixes(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	var l Logger = StdLogger{}
	l.Errorf("[addSpace] following feature does not exist: %s", "w")
	l.Warnf("feature %q not found", "q")

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "[VISUALIZER][ERROR][addSpace] following feature does not exist: w" {
		t.Errorf("unexpected error line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], WarningPrefix) {
		t.Errorf("expected warning prefix, got %q", lines[1])
	}
}

func TestOrDefault(t *testing.T) {
	if _, ok := OrDefault(nil).(StdLogger); !ok {
		t.Error("expected StdLogger for nil input")
	}
	var n Logger = NopLogger{}
	if OrDefault(n) != n {
		t.Error("expected the supplied logger to be returned")
	}
}
