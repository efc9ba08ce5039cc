// Summary banner and results persistence (§4.5, §6). The reference
// implementation prints a hand-drawn asterisk border around the
// pass/fail counts; this port keeps the same content but renders it with
// lipgloss box styles, the way vovakirdan/surge draws its own run
// summaries.
package runner

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Summary renders the regression's pass/fail banner (§4.5: "a final
// summary of pass/fail counts across all registered tests").
func Summary(results []TestResult) string {
	var passed, failed int
	var lines []string
	for _, r := range results {
		status := passStyle.Render("PASS")
		if !r.Passed {
			status = failStyle.Render("FAIL")
			failed++
		} else {
			passed++
		}
		lines = append(lines, fmt.Sprintf("%-6s %-24s %.3fs", status, r.Name, r.Elapsed.Seconds()))
		if !r.Passed {
			lines = append(lines, "       "+r.Err)
		}
	}
	lines = append(lines, "", fmt.Sprintf("%d passed, %d failed, %d total", passed, failed, len(results)))
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

// Persist writes results to path as msgpack, atomically (§11's
// results.msgpack, for CI tooling that wants structured output instead
// of parsed log lines).
func Persist(path string, results []TestResult) error {
	data, err := msgpack.Marshal(results)
	if err != nil {
		return fmt.Errorf("runner: marshal results: %w", err)
	}
	return atomicWrite(path, data)
}
