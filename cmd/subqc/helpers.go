package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"subqc/internal/report"
	"subqc/internal/rules"
)

// writeJSON prints v as indented JSON on the command's stdout, the same
// encoding the store persists for reports.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func severityLabel(sev rules.Severity, colorize bool) string {
	label := strings.ToUpper(string(sev))
	if !colorize {
		return label
	}
	switch sev {
	case rules.SeverityError:
		return ansiRed + label + ansiReset
	case rules.SeverityWarning:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

// formatHint derives the decode hint: an explicit flag wins, otherwise
// the file extension.
func formatHint(flag, path string) string {
	if trimmed := strings.TrimSpace(flag); trimmed != "" {
		return trimmed
	}
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

func cueRange(issue rules.Issue) string {
	if issue.EndCueIndex != issue.CueIndex {
		return fmt.Sprintf("%d-%d", issue.CueIndex, issue.EndCueIndex)
	}
	return strconv.Itoa(issue.CueIndex)
}

func issueRows(issues []rules.Issue, colorize bool) [][]string {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{
			cueRange(issue),
			issue.RuleID,
			severityLabel(issue.Severity, colorize),
			issue.Message,
		})
	}
	return rows
}

func renderReportSummary(w io.Writer, rep *report.Report) {
	colorize := shouldColorize(w)

	fmt.Fprintf(w, "Run %s\n", rep.RunID)
	fmt.Fprintf(w, "  %-10s %s (%s)\n", "source:", rep.SourceFile, rep.SourceFormat)
	fmt.Fprintf(w, "  %-10s %s\n", "profile:", rep.ProfileID)
	fmt.Fprintf(w, "  %-10s %s\n", "mode:", rep.Mode)
	fmt.Fprintf(w, "  %-10s %d cues, avg %.1f cps, %d over limit\n",
		"metrics:", rep.Metrics.CueCount, rep.Metrics.AvgCPS, rep.Metrics.OverCPS)
	if len(rep.Fixes) > 0 {
		fmt.Fprintf(w, "  %-10s %d applied\n", "fixes:", len(rep.Fixes))
	}
	if len(rep.Proposals) > 0 {
		fmt.Fprintf(w, "  %-10s %d pending review\n", "proposals:", len(rep.Proposals))
	}
	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "  %-10s %s\n", "warning:", warning)
	}

	if len(rep.Residual) == 0 {
		ok := "no issues"
		if colorize {
			ok = ansiGreen + ok + ansiReset
		}
		fmt.Fprintf(w, "  %-10s %s\n", "result:", ok)
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, renderTable(
		[]string{"CUE", "RULE", "SEVERITY", "MESSAGE"},
		issueRows(rep.Residual, colorize),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
}

func joinRuleIDs(ids []string) string {
	return strings.Join(ids, ", ")
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	if len(lines) == 1 {
		return lines[0]
	}
	return lines[0] + " …"
}

// defaultFixedPath places the fixed document next to the input:
// episode.srt becomes episode.fixed.srt.
func defaultFixedPath(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + ".fixed" + ext
}
