package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// Result is the end state of one load job as shown to the user.
type Result struct {
	Name    string
	Handle  graphload.JobHandle
	Outcome graphload.PollOutcome
	Err     error
}

// Succeeded reports whether the job completed or was queued.
func (r Result) Succeeded() bool {
	if r.Err != nil {
		return false
	}
	return r.Outcome.Outcome == graphload.OutcomeCompleted || r.Outcome.Outcome == graphload.OutcomeQueued
}

// Renderer formats results, with or without styling.
type Renderer struct {
	color bool
}

func NewRenderer(mode Mode) *Renderer {
	return &Renderer{color: mode == ModeColor}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Line renders one result as a single line.
func (r *Renderer) Line(res Result, nameWidth int) string {
	name := res.Name + strings.Repeat(" ", max(0, nameWidth-lipgloss.Width(res.Name)))
	id := res.Handle.ID
	if id == "" {
		id = "-"
	}

	if res.Err != nil && res.Outcome.Outcome == "" {
		return fmt.Sprintf("%s %s  %s  %s",
			r.style(ErrorStyle, SymbolCross), name, r.style(MutedStyle, id),
			r.style(ErrorStyle, "ERROR: "+res.Err.Error()))
	}

	symbol, style := r.symbolFor(res.Outcome.Outcome)
	detail := fmt.Sprintf("%s (%d %s)", res.Outcome.Outcome, res.Outcome.Iterations, plural(res.Outcome.Iterations, "check", "checks"))
	if res.Outcome.Last.Code != "" && res.Outcome.Outcome == graphload.OutcomeBudgetExhausted {
		detail += ", last " + string(res.Outcome.Last.Code)
	}
	if res.Err != nil {
		detail += ": " + res.Err.Error()
	}

	return fmt.Sprintf("%s %s  %s  %s", r.style(style, symbol), name, r.style(MutedStyle, id), r.style(style, detail))
}

func (r *Renderer) symbolFor(o graphload.Outcome) (string, lipgloss.Style) {
	switch o {
	case graphload.OutcomeCompleted:
		return SymbolCheck, SuccessStyle
	case graphload.OutcomeQueued:
		return SymbolQueued, WarningStyle
	case graphload.OutcomeFailed:
		return SymbolCross, ErrorStyle
	default:
		return SymbolExhausted, WarningStyle
	}
}

// Summary renders every result followed by a totals line.
func (r *Renderer) Summary(results []Result) string {
	width := 0
	for _, res := range results {
		width = max(width, lipgloss.Width(res.Name))
	}

	lines := make([]string, 0, len(results)+2)
	lines = append(lines, r.style(TitleStyle, "Load results"))
	ok := 0
	for _, res := range results {
		if res.Succeeded() {
			ok++
		}
		lines = append(lines, r.Line(res, width))
	}

	totals := fmt.Sprintf("%d of %d %s succeeded", ok, len(results), plural(len(results), "job", "jobs"))
	if ok == len(results) {
		lines = append(lines, r.style(SuccessStyle, totals))
	} else {
		lines = append(lines, r.style(ErrorStyle, totals))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
