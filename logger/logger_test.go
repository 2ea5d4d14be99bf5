package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	if err := SetLevel("warn"); err != nil {
		t.Fatal(err)
	}
	defer SetLevel("info")

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn line missing: %q", out)
	}

	if err := SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
