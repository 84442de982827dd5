package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Level:       "info",
		Format:      "json",
		Output:      &buf,
		ServiceName: "genrun-test",
	})

	log.Info("hello", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON log line, got error: %v (line: %s)", err, buf.String())
	}
	if record["msg"] != "hello" {
		t.Errorf("expected msg='hello', got %v", record["msg"])
	}
	if record["key"] != "value" {
		t.Errorf("expected key='value', got %v", record["key"])
	}
	if record["service"] != "genrun-test" {
		t.Errorf("expected service='genrun-test', got %v", record["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Level:  "warn",
		Format: "json",
		Output: &buf,
	})

	log.Debug("invisible")
	log.Info("also invisible")
	log.Warn("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "visible") {
		t.Errorf("expected warn line, got: %s", lines[0])
	}
}

func TestWithJobID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.WithJobID("job-42").Info("processing")

	if !strings.Contains(buf.String(), `"job_id":"job-42"`) {
		t.Errorf("expected job_id attribute, got: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := ContextWithJobID(context.Background(), "ctx-job")
	log.FromContext(ctx).Info("from context")

	if !strings.Contains(buf.String(), `"job_id":"ctx-job"`) {
		t.Errorf("expected job_id from context, got: %s", buf.String())
	}
}

func TestColorFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "color", Output: &buf, ServiceName: "genrun"})

	log.WithComponent("poll").Debug("tick", "elapsed", "1s")

	out := buf.String()
	if !strings.Contains(out, "tick") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "component") || !strings.Contains(out, "poll") {
		t.Errorf("expected component attr in output, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in).String(); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
