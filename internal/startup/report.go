// Package startup validates the assembled system before it serves
// traffic. Checks run concurrently where their inputs allow, and the
// resulting report gates the process: a critical failure means the bot
// must not start.
package startup

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the outcome of one check.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusWarning Status = "warning"
	StatusSkipped Status = "skipped"
)

// Category groups checks for the report summary.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryLLM           Category = "llm"
	CategoryDatabase      Category = "database"
	CategoryRegistry      Category = "registry"
	CategoryAgent         Category = "agent"
	CategorySystem        Category = "system"
)

// Check is one finished validation result.
type Check struct {
	Name       string         `json:"name"`
	Category   Category       `json:"category"`
	Status     Status         `json:"status"`
	Message    string         `json:"message"`
	DurationMS int64          `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`
}

// StatusCounts tallies check outcomes within a category.
type StatusCounts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Warning int `json:"warning"`
	Skipped int `json:"skipped"`
}

// Report is the full validation outcome.
type Report struct {
	OverallStatus    Status                    `json:"overall_status"`
	Checks           []Check                   `json:"checks"`
	CountsByCategory map[Category]StatusCounts `json:"counts_by_category"`
	CriticalFailures []string                  `json:"critical_failures"`
	Warnings         []string                  `json:"warnings"`
	Recommendations  []string                  `json:"recommendations"`
	TotalDurationMS  int64                     `json:"total_duration_ms"`
}

// Failed reports whether any critical check failed. The CLI maps this to
// a non-zero exit.
func (r *Report) Failed() bool {
	return len(r.CriticalFailures) > 0
}

// statusMark maps a status to its report glyph.
func statusMark(s Status) string {
	switch s {
	case StatusPassed:
		return "✓"
	case StatusFailed:
		return "✗"
	case StatusWarning:
		return "!"
	default:
		return "-"
	}
}

// Render formats the report as human-readable text for the check command.
func (r *Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Startup validation: %s (%dms)\n\n", r.OverallStatus, r.TotalDurationMS)

	for _, c := range r.Checks {
		fmt.Fprintf(&b, "  %s %-26s %-14s %s", statusMark(c.Status), c.Name, "["+string(c.Category)+"]", c.Message)
		if c.DurationMS > 0 {
			fmt.Fprintf(&b, " (%dms)", c.DurationMS)
		}
		b.WriteByte('\n')
	}

	if len(r.CriticalFailures) > 0 {
		b.WriteString("\nCritical failures:\n")
		for _, f := range r.CriticalFailures {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	if len(r.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}
	return b.String()
}

// assemble builds the report from finished checks.
func assemble(checks []Check, total time.Duration) *Report {
	r := &Report{
		Checks:           checks,
		CountsByCategory: make(map[Category]StatusCounts),
		TotalDurationMS:  total.Milliseconds(),
	}

	for _, c := range checks {
		counts := r.CountsByCategory[c.Category]
		switch c.Status {
		case StatusPassed:
			counts.Passed++
		case StatusFailed:
			counts.Failed++
			r.CriticalFailures = append(r.CriticalFailures, fmt.Sprintf("%s: %s", c.Name, c.Message))
		case StatusWarning:
			counts.Warning++
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", c.Name, c.Message))
		case StatusSkipped:
			counts.Skipped++
		}
		r.CountsByCategory[c.Category] = counts

		if c.DurationMS > slowCheckThreshold.Milliseconds() {
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("%s took %dms; investigate before relying on fast restarts", c.Name, c.DurationMS))
		}
	}
	sort.Strings(r.CriticalFailures)
	sort.Strings(r.Warnings)

	switch {
	case len(r.CriticalFailures) > 0:
		r.OverallStatus = StatusFailed
	case len(r.Warnings) > 0:
		r.OverallStatus = StatusWarning
	default:
		r.OverallStatus = StatusPassed
	}
	return r
}
