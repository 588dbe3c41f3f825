package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kazz187/ganttguild/internal/schedule"
)

const (
	day          = 24 * time.Hour
	maxNameWidth = 24

	barCell       = "█"
	emptyCell     = "·"
	milestoneCell = "◆"
)

type ganttStyles struct {
	critical  lipgloss.Style
	normal    lipgloss.Style
	milestone lipgloss.Style
	empty     lipgloss.Style
	header    lipgloss.Style
}

func newGanttStyles(w io.Writer, colorize bool) ganttStyles {
	if !colorize {
		r := lipgloss.NewRenderer(io.Discard)
		plain := r.NewStyle()
		return ganttStyles{critical: plain, normal: plain, milestone: plain, empty: plain, header: plain}
	}
	r := lipgloss.NewRenderer(w)
	return ganttStyles{
		critical:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		normal:    r.NewStyle().Foreground(lipgloss.Color("33")),
		milestone: r.NewStyle().Foreground(lipgloss.Color("214")),
		empty:     r.NewStyle().Foreground(lipgloss.Color("238")),
		header:    r.NewStyle().Bold(true),
	}
}

// scale returns how many days one column covers so that span days fit in
// width columns.
func scale(span, width int) int {
	if span <= width {
		return 1
	}
	return (span + width - 1) / width
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderGantt draws one row per task over the day range of the set.
// Critical tasks are marked with a trailing asterisk.
func renderGantt(w io.Writer, title string, set *schedule.TaskSet, path schedule.CriticalPath, width int, colorize bool) {
	st := newGanttStyles(w, colorize)
	tasks := set.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(w, st.header.Render(title))
		fmt.Fprintln(w, "(no tasks)")
		return
	}

	origin, last := tasks[0].Start, tasks[0].End
	nameWidth := 0
	for _, t := range tasks {
		if t.Start.Before(origin) {
			origin = t.Start
		}
		if t.End.After(last) {
			last = t.End
		}
		nameWidth = max(nameWidth, len([]rune(t.Name)))
	}
	origin = origin.Truncate(day)
	nameWidth = min(nameWidth, maxNameWidth)
	span := max(int((last.Sub(origin)+day-1)/day), 1)
	perCol := scale(span, width)
	cols := (span + perCol - 1) / perCol

	unit := "day"
	if perCol > 1 {
		unit = fmt.Sprintf("%d days", perCol)
	}
	fmt.Fprintf(w, "%s  %s..%s  (1 column = %s)\n", st.header.Render(title),
		origin.Format(dateLayout), last.Format(dateLayout), unit)

	column := func(t time.Time) int {
		return int(t.Sub(origin)/day) / perCol
	}
	for _, t := range tasks {
		critical := path.Contains(t.ID)
		from, to := column(t.Start), column(t.End.Add(-time.Nanosecond))+1
		if t.IsMilestone {
			to = from + 1
		}
		from, to = min(from, cols-1), min(to, cols)

		var b strings.Builder
		b.WriteString(st.empty.Render(strings.Repeat(emptyCell, from)))
		switch {
		case t.IsMilestone:
			b.WriteString(st.milestone.Render(milestoneCell))
		case critical:
			b.WriteString(st.critical.Render(strings.Repeat(barCell, to-from)))
		default:
			b.WriteString(st.normal.Render(strings.Repeat(barCell, to-from)))
		}
		b.WriteString(st.empty.Render(strings.Repeat(emptyCell, cols-to)))

		line := fmt.Sprintf("%-*s  %s", nameWidth, truncate(t.Name, nameWidth), b.String())
		if critical {
			line += " *"
		}
		fmt.Fprintln(w, line)
	}
	if len(path.TaskIDs) > 0 {
		fmt.Fprintf(w, "* critical path: %s (%d days)\n", strings.Join(path.TaskIDs, " -> "), path.TotalDuration)
	}
}
