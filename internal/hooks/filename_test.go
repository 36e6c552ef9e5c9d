package hooks

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestHookRecordsCaller(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.Out = buf
	l.AddHook(NewHook())

	l.WithField("component", "test").Info("hello")

	if !strings.Contains(buf.String(), "hooks/filename_test.go:") {
		t.Fatalf("log line %q has no caller", buf.String())
	}
}

func TestTrimPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/go/src/github.com/lonng/dicebox/internal/world/ops.go", "world/ops.go"},
		{"main.go", "main.go"},
	}
	for _, c := range cases {
		if got := trimPath(c.in); got != c.want {
			t.Fatalf("trimPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
