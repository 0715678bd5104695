package eval

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// WriteSummary prints a human-readable digest of a report: the aggregate
// numbers, then every failed case with the metric reasons.
func WriteSummary(w io.Writer, report *Report) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Evaluation report %s (%s mode)\n", report.RunID, report.Mode)
	if report.DatasetName != "" {
		fmt.Fprintf(w, "Dataset:        %s\n", report.DatasetName)
	}
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Total cases:    %d\n", report.TotalCases)
	fmt.Fprintf(w, "Passed:         %d (%.1f%%)\n", report.PassedCases, report.PassRate*100)
	fmt.Fprintf(w, "Failed:         %d\n", report.FailedCases)
	fmt.Fprintf(w, "Duration:       %v\n", time.Duration(report.Duration))

	if len(report.MetricMeans) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Mean metric scores:")
		for _, name := range sortedKeys(report.MetricMeans) {
			fmt.Fprintf(w, "  %-24s %.3f  (%d cases scored)\n",
				name, report.MetricMeans[name], report.MetricCounts[name])
		}
	}

	if report.FailedCases > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed cases:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, c := range report.Cases {
			if c.Passed {
				continue
			}
			fmt.Fprintf(w, "[%s] %s\n", c.Record.ID, c.Record.Question)
			if c.Error != "" {
				fmt.Fprintf(w, "  error: %s\n", c.Error)
				continue
			}
			for _, m := range c.Metrics {
				if !m.Passed {
					fmt.Fprintf(w, "  - %s: %.2f %s\n", m.Metric, m.Score, m.Reason)
				}
			}
		}
	}
	fmt.Fprintln(w, line)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
