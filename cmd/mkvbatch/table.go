package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableSpec describes one rounded go-pretty table. Rows shorter than the
// header are padded; right lists zero-based columns to right-align.
type tableSpec struct {
	title   string
	headers []string
	rows    [][]string
	footer  []string
	right   []int
}

func (s tableSpec) render() string {
	columns := len(s.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if s.title != "" {
		tw.SetTitle(s.title)
		tw.Style().Title.Align = text.AlignLeft
	}
	tw.AppendHeader(toRow(s.headers, columns))
	for _, row := range s.rows {
		tw.AppendRow(toRow(row, columns))
	}
	if len(s.footer) > 0 {
		tw.AppendFooter(toRow(s.footer, columns))
		tw.Style().Format.Footer = text.FormatDefault
	}

	configs := make([]table.ColumnConfig, 0, len(s.right))
	for _, col := range s.right {
		if col < 0 || col >= columns {
			continue
		}
		configs = append(configs, table.ColumnConfig{
			Number:      col + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
			AlignFooter: text.AlignRight,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
