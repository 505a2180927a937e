package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lisaguthrie/sipdashboard/internal/config"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/services"
)

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("run started", logging.String("units", "3"))

	matches, err := filepath.Glob(filepath.Join(cfg.Paths.LogDir, logging.LogFilePattern))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one run log, got %v", matches)
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("run log is not JSON: %v (%q)", err, content)
	}
	if record["msg"] != "run started" {
		t.Fatalf("unexpected msg %v", record["msg"])
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerHeader(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "goals")
	logging.WarnWithContext(logger.With(logging.String(logging.FieldUnit, "Lincoln Elementary")),
		"only found 2 goals", "goal_count_short")

	out := buf.String()
	for _, want := range []string{"WARN [goals] Lincoln Elementary – only found 2 goals", "event_type: goal_count_short", "impact:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestConsoleLoggerFoldsPageAndCountsOverflow(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("rows merged",
		logging.String(logging.FieldUnit, "Adams Middle"),
		logging.Int(logging.FieldPage, 12),
		logging.Int("a", 1), logging.Int("b", 2), logging.Int("c", 3),
		logging.Int("d", 4), logging.Int("e", 5), logging.Int("f", 6), logging.Int("g", 7),
	)

	out := buf.String()
	for _, want := range []string{"INFO Adams Middle p.12 – rows merged", "    - a: 1", "+ 1 more field in log file"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "- page:") {
		t.Fatalf("page should be folded into the header: %q", out)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record["k"] != "v" || record["level"] != "info" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected info level, got %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-xyz")
	ctx = services.WithBucket(ctx, "middle")
	ctx = services.WithUnit(ctx, "Adams Middle")

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]string{
		logging.FieldRunID:  "run-xyz",
		logging.FieldBucket: "middle",
		logging.FieldUnit:   "Adams Middle",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
}

func TestRunLogReceivesConsoleRecords(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", logging.RunLogName(time.Now()))
	logger, err := logging.New(logging.Options{Format: "console", Writer: &console, FilePath: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("school extracted", logging.String("unit", "Lincoln Elementary"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(console.String(), "school extracted") || !strings.Contains(string(data), `"msg":"school extracted"`) {
		t.Fatalf("expected both outputs to receive the record: %q %q", console.String(), string(data))
	}
}

func TestPruneRunLogsKeepsRecentAndCurrent(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "sipdash-20200101T000000.log")
	current := filepath.Join(dir, "sipdash-20200102T000000.log")
	recent := filepath.Join(dir, "sipdash-20200103T000000.log")
	unrelated := filepath.Join(dir, "notes.txt")
	stale := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, current, recent, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		if path == recent {
			continue
		}
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 7, current); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be pruned, err=%v", old, err)
	}
	for _, path := range []string{current, recent, unrelated} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
	if removed := logging.PruneRunLogs(nil, dir, 0, ""); removed != 0 {
		t.Fatalf("zero retention should keep everything, removed %d", removed)
	}
}
