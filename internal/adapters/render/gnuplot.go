package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/flowlens/internal/domain/model"
)

const secondsPerDay = 24 * 60 * 60

// WriteProject writes <label>.dat and <label>.gnuplot into dir. The script
// draws three stacked panels: cumulative stage counts, P90 ages in days,
// and weekly throughput.
func WriteProject(dir, label string, stages, doneStages []string, records []model.WeeklyMetrics) error {
	datName := label + ".dat"

	var dat strings.Builder
	if err := WriteSeries(&dat, stages, records); err != nil {
		return fmt.Errorf("rendering %s: %w", datName, err)
	}
	if err := os.WriteFile(filepath.Join(dir, datName), []byte(dat.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", datName, err)
	}

	script := gnuplotScript(datName, label, stages, doneStages)
	scriptPath := filepath.Join(dir, label+".gnuplot")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", scriptPath, err)
	}
	return nil
}

func gnuplotScript(datName, label string, stages, doneStages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `set terminal png enhanced font "Arial,10" fontscale 1.0 size 1024,768
set output "%s.png"
set multiplot layout 3,1 title "%s"
set datafile separator "\t"
set datafile missing ""
set xdata time
set timefmt "%%Y-%%m-%%dT%%H:%%M:%%S%%z"
`, label, label)

	// Counts panel: stack by summing each column with everything after it,
	// so earlier stages in the configured order draw on top.
	b.WriteString("set title \"Cumulative Items in Stage - Count\"\nset key left top outside\n")
	b.WriteString(stackedPlotLine(datName, stages, 2, ""))

	// P90 panel, ages converted from seconds to days.
	b.WriteString("set title \"P90 Age in Stage - Days\"\nset key left top outside\n")
	b.WriteString(stackedPlotLine(datName, stages, 2+len(stages), fmt.Sprintf("/%d.0", secondsPerDay)))

	// Throughput panel.
	fmt.Fprintf(&b, "set title \"Throughput - Items Entering %s - Count\"\nunset key\n", strings.Join(doneStages, ", "))
	fmt.Fprintf(&b, "plot \"%s\" using 1:%d with filledcurve x1\n", datName, 2+2*len(stages))

	return b.String()
}

// stackedPlotLine emits one gnuplot plot command where each stage's curve is
// the sum of its own column and all later stage columns in the group, which
// yields the stacked area rendering. scale is appended to each column
// reference, e.g. "/86400.0".
func stackedPlotLine(datName string, stages []string, firstCol int, scale string) string {
	var b strings.Builder
	b.WriteString("plot")
	lastCol := firstCol + len(stages) - 1
	for i, stage := range stages {
		if i > 0 {
			b.WriteString(",")
		}
		terms := make([]string, 0, len(stages)-i)
		for col := firstCol + i; col <= lastCol; col++ {
			terms = append(terms, fmt.Sprintf("$%d%s", col, scale))
		}
		fmt.Fprintf(&b, " %q using 1:(%s) with filledcurve x1 title %q",
			datName, strings.Join(terms, "+"), stage)
	}
	b.WriteString("\n")
	return b.String()
}
