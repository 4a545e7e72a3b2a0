// Package observability provides formatted terminal output for analyses, history and statistics.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-screener/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the number of cells in a full score bar
	barWidth = 20
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, ending with "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes.
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// ScoreBar renders a score from 0 to 100 as a fixed-width bar.
func ScoreBar(score float64) string {
	score = max(0, min(100, score))
	filled := int(score/100*barWidth + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

// PrintAnalysis outputs a full analysis: overall score, section breakdown,
// strengths and weaknesses.
func (p *Printer) PrintAnalysis(a *types.StoredAnalysis) {
	if a == nil {
		return
	}

	var sb strings.Builder
	name := a.CandidateName
	if name == "" {
		name = "Unknown candidate"
	}
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", name))
	if a.FileName != "" {
		sb.WriteString(fmt.Sprintf("File:      %s\n", a.FileName))
	}
	sb.WriteString(fmt.Sprintf("Overall:   %3.0f  %s\n", a.OverallScore, ScoreBar(a.OverallScore)))
	sb.WriteString("\n")

	w := types.DefaultWeights()
	if a.Weights != nil {
		w = *a.Weights
	}
	sk, ex, ed := w.Percentages()
	sections := []struct {
		label   string
		weight  int
		section types.AnalysisSection
	}{
		{"Skills", sk, a.SkillsAnalysis},
		{"Experience", ex, a.ExperienceAnalysis},
		{"Education", ed, a.EducationAnalysis},
	}
	for _, s := range sections {
		sb.WriteString(fmt.Sprintf("%-10s %3.0f  %s  (%d%%)\n", s.label, s.section.Score, ScoreBar(s.section.Score), s.weight))
	}

	if a.Summary != "" {
		sb.WriteString("\n")
		for _, line := range wrap(a.Summary, boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}

	writeList(&sb, "Strengths:", "+", a.Strengths)
	writeList(&sb, "Weaknesses:", "-", a.Weaknesses)

	p.printBox("RESUME ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, heading, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + heading + "\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  %s %s\n", marker, items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintHistory outputs one line per stored analysis, newest first. The
// current analysis is marked with an asterisk.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintHistory(history []types.StoredAnalysis, currentID string) {
	if len(history) == 0 {
		fmt.Fprintln(p.out, "No saved analyses.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d saved analyses\n\n", len(history)))
	for _, h := range history {
		marker := " "
		if h.ID == currentID {
			marker = "*"
		}
		name := h.CandidateName
		if name == "" {
			name = h.FileName
		}
		sb.WriteString(fmt.Sprintf("%s %3.0f  %-19s  %s\n", marker, h.OverallScore, shortTime(h.Timestamp), truncate(name, 24)))
		sb.WriteString(fmt.Sprintf("        %s\n", h.ID))
	}

	p.printBox("ANALYSIS HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// shortTime trims an RFC 3339 timestamp to minutes.
func shortTime(ts string) string {
	ts = strings.Replace(ts, "T", " ", 1)
	if len(ts) > 16 {
		return ts[:16]
	}
	return ts
}

// PrintStats outputs aggregate statistics and the recent score trend.
func (p *Printer) PrintStats(stats types.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total analyses: %d\n", stats.TotalAnalyses))
	if stats.TotalAnalyses == 0 {
		p.printBox("STATISTICS", strings.TrimSuffix(sb.String(), "\n"))
		return
	}
	sb.WriteString(fmt.Sprintf("Average score:  %d\n", stats.AverageScore))

	if len(stats.ScoreTrend) > 0 {
		sb.WriteString("\nScore trend (newest first):\n")
		for _, s := range stats.ScoreTrend {
			sb.WriteString(fmt.Sprintf("  %3.0f  %s\n", s, ScoreBar(s)))
		}
	}

	if len(stats.RecentAnalyses) > 0 {
		sb.WriteString("\nRecent:\n")
		for _, r := range stats.RecentAnalyses {
			sb.WriteString(fmt.Sprintf("  %3.0f  %s\n", r.OverallScore, truncate(r.CandidateName, 40)))
		}
	}

	p.printBox("STATISTICS", strings.TrimSuffix(sb.String(), "\n"))
}
