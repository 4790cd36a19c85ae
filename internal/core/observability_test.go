package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()
	rec.Observe(ctx, "case_record.get", true, 10*time.Millisecond)
	rec.Observe(ctx, "case_record.get", true, 5*time.Millisecond)
	rec.Observe(ctx, "case_record.get", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS["case_record.get"] != 16 {
		t.Fatalf("durations: %v", snap.DurationsMS)
	}
	if snap.Results["case_record.get"]["success"] != 2 || snap.Results["case_record.get"]["error"] != 1 {
		t.Fatalf("results: %v", snap.Results)
	}
	if rec.Name() == "" {
		t.Fatalf("generated name expected")
	}
}

func TestExpvarSnapshotIsCopy(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "op", true, time.Millisecond)
	snap := rec.Snapshot()
	snap.DurationsMS["op"] = 999
	if rec.Snapshot().DurationsMS["op"] == 999 {
		t.Fatalf("snapshot must not alias internal state")
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "case_record.update")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries: %v", entries)
	}
	if entries[0].Operation != "case_record.update" || entries[0].Status != "error" || entries[0].Error != "boom" {
		t.Fatalf("entry: %+v", entries[0])
	}

	var decoded JSONTraceEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if decoded.Operation != "case_record.update" {
		t.Fatalf("decoded: %+v", decoded)
	}
}

func TestJSONTracerNilWriter(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), "op")
	span.End(nil)
	if entries := tracer.Entries(); len(entries) != 1 || entries[0].Status != "success" {
		t.Fatalf("entries: %v", entries)
	}
}
