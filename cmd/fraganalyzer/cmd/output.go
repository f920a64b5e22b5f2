package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/analysis"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/index"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/plot"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/search"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorRed     = lipgloss.Color("#EF4444")
	colorGreen   = lipgloss.Color("#10B981")
	colorMuted   = lipgloss.Color("#6B7280")

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(colorPrimary).
			Padding(0, 1)
	styleCell  = lipgloss.NewStyle().Padding(0, 1)
	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)
	styleRed   = lipgloss.NewStyle().Foreground(colorRed).Padding(0, 1)
	styleGreen = lipgloss.NewStyle().Foreground(colorGreen).Padding(0, 1)
)

func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("invalid output format '%s', must be table, json or yaml", format)
}

// table renders rows of cells with a styled header. Columns are as wide as
// their widest cell.
func table(header []string, rows [][]string, style func(row, col int) lipgloss.Style) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = styleHeader.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))

	for r, row := range rows {
		b.WriteByte('\n')
		for i, cell := range row {
			s := styleCell
			if style != nil {
				s = style(r, i)
			}
			cells[i] = s.Width(widths[i] + 2).Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return b.String()
}

func renderRows(res *search.Result) string {
	header := []string{"#", "Sequence", "Modified sequence", "Length", "Count"}
	if res.Mode == index.ModificationSearch {
		header = []string{"#", "Sequence", "Modified sequence", "Length", "Unmodified", "Modified"}
	}

	rows := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		row := []string{strconv.Itoa(i + 1), r.Sequence, r.ModifiedSequence, strconv.Itoa(r.Length), strconv.Itoa(r.CountA)}
		if r.CountB != nil {
			row = append(row, strconv.Itoa(*r.CountB))
		}
		rows[i] = row
	}

	summary := styleMuted.Render(fmt.Sprintf("%d identifications matched, %d rows", res.MatchCount, len(res.Rows)))
	return table(header, rows, nil) + "\n" + summary
}

// renderReport prints a table view of a dataset.
func renderReport(report *analysis.Report) string {
	var body string
	switch d := report.Dataset.(type) {
	case *plot.BoxPlotDataset:
		body = renderBoxPlot(d)
	case *plot.XYZDataset:
		body = renderXYZ(d)
	case *plot.LineDataset:
		body = renderLine(d)
	case *plot.HeatMapMatrix:
		body = renderHeatMap(d)
	}

	var b strings.Builder
	b.WriteString(body)
	for _, w := range report.Warnings {
		b.WriteString("\n" + styleMuted.Render("warning: "+w))
	}
	b.WriteString("\n" + styleMuted.Render(fmt.Sprintf("%s over %d identifications in %d rows (run %s)",
		report.Kind, report.Identifications, len(report.Rows), report.RunID)))
	return b.String()
}

func renderBoxPlot(d *plot.BoxPlotDataset) string {
	header := []string{"Series", "Category", "Min", "Q1", "Median", "Q3", "Max", "Mean", "N"}
	rows := make([][]string, len(d.Items))
	for i, item := range d.Items {
		s := item.Stats
		rows[i] = []string{item.Series, item.Category, num(s.Min), num(s.Q1), num(s.Median), num(s.Q3), num(s.Max), num(s.Mean), strconv.Itoa(s.Count)}
	}
	return table(header, rows, nil)
}

func renderXYZ(d *plot.XYZDataset) string {
	header := []string{"Series", d.XLabel, d.YLabel, "z"}
	var rows [][]string
	for _, s := range d.Series {
		for _, p := range s.Points {
			rows = append(rows, []string{s.Name, num(p.X), num(p.Y), num(p.Z)})
		}
	}
	return table(header, rows, nil)
}

func renderLine(d *plot.LineDataset) string {
	var b strings.Builder
	if len(d.Series) > 0 {
		header := []string{"Series", "Position", "%"}
		var rows [][]string
		for _, s := range d.Series {
			for _, p := range s.Points {
				rows = append(rows, []string{s.Label, strconv.Itoa(p.Bucket), num(p.Percent)})
			}
		}
		b.WriteString(table(header, rows, nil))
	}
	if len(d.Other) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		rows := make([][]string, len(d.Other))
		for i, o := range d.Other {
			rows[i] = []string{o.Label, num(o.Percent)}
		}
		b.WriteString(table([]string{"Ion", "%"}, rows, nil))
	}
	return b.String()
}

// renderHeatMap colours cells red or green when the significance pass ran.
func renderHeatMap(m *plot.HeatMapMatrix) string {
	header := append([]string{""}, m.Labels...)
	rows := make([][]string, len(m.Cells))
	for i, cells := range m.Cells {
		row := []string{m.Labels[i]}
		for _, c := range cells {
			if c.Value == nil {
				row = append(row, "-")
				continue
			}
			row = append(row, strconv.FormatFloat(*c.Value, 'f', 3, 64))
		}
		rows[i] = row
	}

	return table(header, rows, func(r, col int) lipgloss.Style {
		if col == 0 {
			return styleCell
		}
		switch m.Cells[r][col-1].Colour {
		case plot.Red:
			return styleRed
		case plot.Green:
			return styleGreen
		}
		return styleCell
	})
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
