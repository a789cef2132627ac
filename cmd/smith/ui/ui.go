// Package ui renders pipeline progress, artifacts, and run history for
// the terminal.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"codesmith/internal/pipeline"
	"codesmith/internal/store"
)

// Semantic colors, shared across light and dark terminals.
var (
	Accent      = lipgloss.Color("#8BC34A") // lime green
	Info        = lipgloss.Color("#2196F3") // blue
	Destructive = lipgloss.Color("#e53935") // red
	Muted       = lipgloss.Color("245")
)

var (
	headingStyle  = lipgloss.NewStyle().Foreground(Info).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(Muted).Italic(true)
	successStyle  = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(Destructive).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(Muted)
	codeStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			Padding(0, 1)
)

// ConsoleReporter prints artifacts and progress lines as the pipeline
// produces them.
type ConsoleReporter struct {
	w io.Writer
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (r *ConsoleReporter) Artifact(name, content string) {
	fmt.Fprintln(r.w, headingStyle.Render(artifactTitle(name)))
	fmt.Fprintln(r.w, codeStyle.Render(content))
	fmt.Fprintln(r.w)
}

func (r *ConsoleReporter) Progress(message string) {
	fmt.Fprintln(r.w, progressStyle.Render("> "+message))
}

func artifactTitle(name string) string {
	switch name {
	case "code_signature":
		return "Code Signature"
	case "code":
		return "Candidate Code"
	case "fixed_code":
		return "Repaired Code"
	case "test_1":
		return "Test 1"
	case "test_2":
		return "Test 2"
	case "edge_case_test_1":
		return "Edge Case Test"
	}
	return name
}

// Summary renders the terminal banner for a finished run.
func Summary(res *pipeline.Result) string {
	var b strings.Builder
	b.WriteString(successStyle.Render("✓ generation complete"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  repairs: %d   duration: %s   states: %d transitions",
		res.Repairs, res.Duration.Round(time.Millisecond), len(res.Transitions))))
	return b.String()
}

// Failure renders the terminal banner for a failed run.
func Failure(err error) string {
	var exhausted *pipeline.RepairExhaustedError
	if errors.As(err, &exhausted) {
		var b strings.Builder
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ no working candidate after %d repair attempts", exhausted.Attempts)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("  last failing artifact: " + firstLine(exhausted.Artifact)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("  last error: " + firstLine(exhausted.LastErr)))
		return b.String()
	}
	return errorStyle.Render("✗ generation failed: " + err.Error())
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " …"
	}
	return s
}

// History renders recent runs, newest first.
func History(records []store.RunRecord) string {
	if len(records) == 0 {
		return mutedStyle.Render("no runs recorded yet")
	}

	var b strings.Builder
	for _, rec := range records {
		b.WriteString(statusBadge(rec.Status))
		b.WriteString(" ")
		b.WriteString(rec.Task)
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s   repairs: %d   %dms   %s",
			shortID(rec.ID), rec.Repairs, rec.DurationMs,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"))))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// StatsLine renders the aggregate history counters.
func StatsLine(stats *store.Stats) string {
	if stats.TotalRuns == 0 {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf("%d runs, %d succeeded, %.1f repairs on average",
		stats.TotalRuns, stats.Succeeded, stats.AverageRepairs))
}

func statusBadge(status string) string {
	switch status {
	case store.StatusDone:
		return successStyle.Render("done")
	case store.StatusRepairExhausted:
		return errorStyle.Render("exhausted")
	default:
		return errorStyle.Render("error")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
