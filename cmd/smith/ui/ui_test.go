package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"codesmith/internal/pipeline"
	"codesmith/internal/store"
)

func TestConsoleReporter(t *testing.T) {
	var buf strings.Builder
	r := NewConsoleReporter(&buf)

	r.Artifact("code_signature", "func isPrime(n int) bool")
	r.Progress("running test_1")

	out := buf.String()
	if !strings.Contains(out, "Code Signature") {
		t.Error("artifact heading missing")
	}
	if !strings.Contains(out, "func isPrime(n int) bool") {
		t.Error("artifact content missing")
	}
	if !strings.Contains(out, "running test_1") {
		t.Error("progress line missing")
	}
}

func TestArtifactTitle(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"code_signature", "Code Signature"},
		{"code", "Candidate Code"},
		{"fixed_code", "Repaired Code"},
		{"test_1", "Test 1"},
		{"test_2", "Test 2"},
		{"edge_case_test_1", "Edge Case Test"},
		{"something_else", "something_else"},
	}
	for _, tt := range tests {
		if got := artifactTitle(tt.name); got != tt.want {
			t.Errorf("artifactTitle(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	res := &pipeline.Result{
		Repairs:  2,
		Duration: 1500 * time.Millisecond,
		State:    pipeline.StateDone,
	}
	out := Summary(res)
	if !strings.Contains(out, "generation complete") {
		t.Error("summary missing the success banner")
	}
	if !strings.Contains(out, "repairs: 2") {
		t.Error("summary missing the repair count")
	}
}

func TestFailure(t *testing.T) {
	exhausted := &pipeline.RepairExhaustedError{
		Attempts: 3,
		Artifact: "if nthFib(1) != 1 {\n\tpanic(\"expected 1\")\n}",
		LastErr:  "panic: expected 1",
	}
	out := Failure(exhausted)
	if !strings.Contains(out, "3 repair attempts") {
		t.Error("failure banner missing the attempt count")
	}
	if !strings.Contains(out, "if nthFib(1) != 1 { …") {
		t.Errorf("failure banner should show the artifact's first line:\n%s", out)
	}

	plain := Failure(errors.New("endpoint unreachable"))
	if !strings.Contains(plain, "endpoint unreachable") {
		t.Error("generic failure banner missing the error text")
	}
}

func TestHistory(t *testing.T) {
	if out := History(nil); !strings.Contains(out, "no runs recorded") {
		t.Errorf("empty history = %q", out)
	}

	records := []store.RunRecord{
		{
			ID:         "2f1e6c1a-1111-2222-3333-444455556666",
			Task:       "a Go function to reverse a string",
			Status:     store.StatusDone,
			Repairs:    1,
			DurationMs: 900,
			CreatedAt:  time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:     "9d8c7b6a-aaaa-bbbb-cccc-ddddeeeeffff",
			Task:   "a Go function that never converged",
			Status: store.StatusRepairExhausted,
		},
	}
	out := History(records)
	if !strings.Contains(out, "a Go function to reverse a string") {
		t.Error("history missing the task line")
	}
	if !strings.Contains(out, "2f1e6c1a") || strings.Contains(out, "2f1e6c1a-1111") {
		t.Error("history should shorten run IDs to 8 characters")
	}
	if !strings.Contains(out, "exhausted") {
		t.Error("history missing the exhausted badge")
	}
}

func TestStatsLine(t *testing.T) {
	if out := StatsLine(&store.Stats{}); out != "" {
		t.Errorf("empty stats should render nothing, got %q", out)
	}

	out := StatsLine(&store.Stats{TotalRuns: 4, Succeeded: 3, AverageRepairs: 1.25})
	if !strings.Contains(out, "4 runs") || !strings.Contains(out, "3 succeeded") || !strings.Contains(out, "1.2 repairs") {
		t.Errorf("unexpected stats line: %q", out)
	}
}
