package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestStdLogger_VerboseWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(true, &buf, true)

	l.Error("ask failed", errors.New("boom"), map[string]interface{}{"provider": "gemini"})

	out := buf.String()
	for _, want := range []string{`"msg":"ask failed"`, `"provider":"gemini"`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %s", out, want)
		}
	}
}

func TestStdLogger_QuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(false, &buf, false)

	l.Debug("debug", nil)
	l.Warn("warn", map[string]interface{}{"k": 1})
	l.Error("error", errors.New("x"), nil)

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestStdLogger_Redirect(t *testing.T) {
	var first, second bytes.Buffer
	l := New(true, &first, false)
	l.Redirect(&second, true)
	l.Info("moved", map[string]interface{}{"n": 1})
	if first.Len() != 0 {
		t.Fatalf("entry written to the old output: %q", first.String())
	}
	if !strings.Contains(second.String(), `"msg":"moved"`) {
		t.Fatalf("redirected output = %q", second.String())
	}
}
