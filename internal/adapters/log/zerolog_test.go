package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/radbatch/internal/ports"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf))

	adapter.Info("case done",
		ports.String("case", "case_00001"),
		ports.Int("features", 42),
		ports.Float64("mean", 1.5),
		ports.Bool("maps", false),
		ports.Duration("took", 2*time.Second),
		ports.Err(errors.New("boom")),
	)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}

	if line["message"] != "case done" {
		t.Errorf("message = %v", line["message"])
	}
	if line["level"] != "info" {
		t.Errorf("level = %v", line["level"])
	}
	if line["case"] != "case_00001" {
		t.Errorf("case = %v", line["case"])
	}
	if line["features"] != float64(42) {
		t.Errorf("features = %v", line["features"])
	}
	if line["error"] != "boom" {
		t.Errorf("error = %v", line["error"])
	}
}

func TestZerologAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	adapter.Debug("hidden")
	adapter.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn level, got %q", buf.String())
	}
	adapter.Warn("shown")
	adapter.Error("shown")
	if n := bytes.Count(buf.Bytes(), []byte("\n")); n != 2 {
		t.Errorf("lines = %d, want 2", n)
	}
}
