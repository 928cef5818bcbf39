package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

// Table renders one Metric/Value table per fileserver, in the manner of
// the classic afsmon "show" output.
type Table struct {
	w                io.Writer
	quotaWarnPercent float64
}

// NewTable creates a table sink writing to w. quotaWarnPercent is the
// volume usage percentage at which rows are highlighted; <= 0 disables
// highlighting.
func NewTable(w io.Writer, quotaWarnPercent float64) *Table {
	return &Table{w: w, quotaWarnPercent: quotaWarnPercent}
}

// Report renders the whole snapshot. Targets that failed render a visible
// outcome marker, never blank rows or zeros that could read as real data.
func (t *Table) Report(result afs.CollectionResult) error {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	fmt.Fprintln(t.w, titleStyle.Render(fmt.Sprintf("AFS cell %s", result.Cell.Name)))
	fmt.Fprintln(t.w, strings.Repeat("═", 60))

	for _, tr := range result.Targets {
		fmt.Fprintln(t.w)
		fs := result.Cell.FileServers[tr.Host]
		rows := t.serverRows(fs, tr, warnStyle, errStyle)

		tbl := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return lipgloss.NewStyle().Bold(true).Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			}).
			Headers("Metric", "Value").
			Rows(rows...)
		fmt.Fprintln(t.w, tbl)
	}

	fmt.Fprintln(t.w)
	t.renderSummary(result, okStyle, errStyle)

	for _, w := range result.Warnings {
		fmt.Fprintf(t.w, "%s\n", warnStyle.Render("warning: "+w.String()))
	}
	return nil
}

func (t *Table) serverRows(fs *afs.FileServer, tr afs.TargetResult, warnStyle, errStyle lipgloss.Style) [][]string {
	rows := [][]string{{"Hostname", tr.Host}}

	if !tr.Outcome.OK() {
		rows = append(rows, []string{"Collection", errStyle.Render(strings.ToUpper(tr.Outcome.String()))})
		for _, e := range tr.Errs {
			rows = append(rows, []string{"Error", e})
		}
	}
	if fs == nil {
		return rows
	}

	rows = append(rows,
		[]string{"Timestamp", fs.Timestamp.Format("2006-01-02 15:04:05")},
		[]string{"Status", fs.State.String()},
	)
	if fs.State == afs.StateNormal && !fs.Restart.IsZero() {
		rows = append(rows,
			[]string{"Uptime", fs.Uptime().Round(time.Second).String()},
			[]string{"Last Restart", fs.Restart.Format("2006-01-02 15:04:05")},
		)
	}

	if tr.Sections.Threads {
		rows = append(rows,
			[]string{"Calls Waiting", fmt.Sprintf("%d", fs.Threads.CallsWaiting)},
			[]string{"Idle Threads", fmt.Sprintf("%d", fs.Threads.Idle)},
		)
		if ratio, ok := fs.Threads.BusyRatio(); ok {
			rows = append(rows, []string{"Busy Threads",
				fmt.Sprintf("%d/%d (%.1f%%)", fs.Threads.Active(), fs.Threads.Total, ratio*100)})
		}
	} else if fs.State == afs.StateNormal {
		rows = append(rows, []string{"Threads", errStyle.Render("UNAVAILABLE")})
	}

	if tr.Sections.Partitions {
		for _, p := range sortedPartitions(fs.Partitions) {
			n := "/" + p.Name
			rows = append(rows,
				[]string{n + " used", humanize.IBytes(p.UsedBytes)},
				[]string{n + " free", humanize.IBytes(p.FreeBytes())},
				[]string{n + " total", humanize.IBytes(p.TotalBytes)},
				[]string{n + " %used", fmt.Sprintf("%.2f%%", p.UsedPercent())},
			)
		}
	} else if fs.State == afs.StateNormal {
		rows = append(rows, []string{"Partitions", errStyle.Render("UNAVAILABLE")})
	}

	if tr.Sections.Volumes {
		for _, v := range sortedVolumes(fs.Volumes) {
			rows = append(rows, []string{v.Name + " used", humanize.IBytes(v.UsedBytes)})
			if v.QuotaBytes == 0 {
				rows = append(rows, []string{v.Name + " quota", "unlimited"})
			} else {
				rows = append(rows, []string{v.Name + " quota", humanize.IBytes(v.QuotaBytes)})
				pct, _ := v.UsedPercent()
				val := fmt.Sprintf("%.2f%%", pct)
				switch {
				case v.OverQuota():
					val = errStyle.Render(val + " OVER QUOTA")
				case t.quotaWarnPercent > 0 && pct >= t.quotaWarnPercent:
					val = warnStyle.Render(val)
				}
				rows = append(rows, []string{v.Name + " %used", val})
			}
			if !v.Creation.IsZero() {
				rows = append(rows, []string{v.Name + " creation", v.Creation.Format("2006-01-02 15:04:05")})
			}
		}
	} else if fs.State == afs.StateNormal {
		rows = append(rows, []string{"Volumes", errStyle.Render("UNAVAILABLE")})
	}

	return rows
}

func (t *Table) renderSummary(result afs.CollectionResult, okStyle, errStyle lipgloss.Style) {
	failed := 0
	for _, tr := range result.Targets {
		if !tr.Outcome.OK() {
			failed++
		}
	}
	if failed == 0 {
		fmt.Fprintln(t.w, okStyle.Render(fmt.Sprintf("All %d fileservers collected", len(result.Targets))))
		return
	}
	fmt.Fprintln(t.w, errStyle.Render(
		fmt.Sprintf("%d of %d fileservers failed collection", failed, len(result.Targets))))
}

func sortedPartitions(m map[string]afs.Partition) []afs.Partition {
	out := make([]afs.Partition, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedVolumes(m map[string]afs.Volume) []afs.Volume {
	out := make([]afs.Volume, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
