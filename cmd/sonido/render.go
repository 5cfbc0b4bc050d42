package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/RyanBlaney/sonido-analyzer/algorithms/chroma"
	"github.com/RyanBlaney/sonido-analyzer/algorithms/temporal"
	"github.com/RyanBlaney/sonido-analyzer/algorithms/tonal"
)

var (
	fileStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))
)

const chromaBarWidth = 30

func renderResult(r fileResult, verbose bool) string {
	var b strings.Builder
	b.WriteString(fileStyle.Render(r.Path))
	b.WriteString("\n")

	if r.Err != nil {
		b.WriteString(errorStyle.Render("  error: " + r.Err.Error()))
		return b.String()
	}

	report := r.Report
	b.WriteString(row("BPM", fmt.Sprintf("%d", report.BPM), temporal.ClassifyTempoCategory(float64(report.BPM))))
	b.WriteString(row("Key", report.KeyFull, ""))

	if !verbose {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString(row("Duration", fmt.Sprintf("%.1fs", report.Duration), ""))
	b.WriteString(row("Tempo", renderTempo(report.Tempo), ""))

	est := report.Tonality
	relPC, relScale := tonal.GetRelativeKey(est.PitchClass, est.Scale)
	parPC, parScale := tonal.GetParallelKey(est.PitchClass, est.Scale)
	b.WriteString(row("Relative", chroma.PitchClassName(relPC)+" "+string(relScale), ""))
	b.WriteString(row("Parallel", chroma.PitchClassName(parPC)+" "+string(parScale), ""))

	for i, c := range est.Candidates[:min(3, len(est.Candidates))] {
		label := ""
		if i == 0 {
			label = "Candidates"
		}
		b.WriteString(row(label, c.Name(), fmt.Sprintf("r=%.3f", c.Correlation)))
	}

	b.WriteString(labelStyle.Render("Chroma"))
	b.WriteString("\n")
	b.WriteString(renderChroma(report.Chroma))

	return strings.TrimRight(b.String(), "\n")
}

func row(label, value, info string) string {
	line := "  " + labelStyle.Render(label) + valueStyle.Render(value)
	if info != "" {
		line += " " + infoStyle.Render("("+info+")")
	}
	return line + "\n"
}

func renderTempo(est temporal.TempoEstimate) string {
	if est.Fallback {
		return fmt.Sprintf("fallback, %d onset frames", est.Frames)
	}

	var corrections []string
	if est.Doubled {
		corrections = append(corrections, "doubled")
	}
	if est.Halved {
		corrections = append(corrections, "halved")
	}
	if len(corrections) == 0 {
		return fmt.Sprintf("lag %d, %.1f raw", est.Lag, est.RawBPM)
	}
	return fmt.Sprintf("lag %d, %s from %.1f", est.Lag, strings.Join(corrections, " and "), est.RawBPM)
}

func renderChroma(c chroma.Chromagram) string {
	peak := c[c.Dominant()]

	var b strings.Builder
	for pc, v := range c {
		width := 0
		if peak > 0 {
			width = int(v / peak * chromaBarWidth)
		}
		fmt.Fprintf(&b, "    %-2s %s %.3f\n", chroma.PitchClassName(pc), barStyle.Render(strings.Repeat("█", width)), v)
	}
	return b.String()
}
