// Package view renders log entries as aligned text columns.
package view

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/etl76/etl/internal/codec"
	"github.com/etl76/etl/internal/model"
)

// Headers are the column titles of the entry overview.
var Headers = []string{"#", "Date", "Phase", "Activity", "Distance", "Time", "Intensity", "Weight", "Fat"}

var rightAligned = map[int]bool{0: true, 2: true, 4: true, 5: true, 7: true, 8: true}

// Row renders the overview cells of r.
func Row(r *model.Record) []string {
	return []string{
		strconv.Itoa(r.DatasetIndex()),
		r.YearMonthDay(),
		strconv.Itoa(r.Phase),
		r.Activity.String(),
		codec.FormatDistance(r.TotalDistanceMeters),
		codec.FormatDuration(r.TotalTimeSeconds),
		r.Intensity.String(),
		codec.FormatMass(r.Weight),
		codec.FormatMassLoss(r.GramsOfFatBurnt),
	}
}

// Lines renders the header and one aligned line per record.
func Lines(records []*model.Record) []string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = Row(r)
	}
	return formatTable(Headers, rows, rightAligned)
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

// displayWidth counts terminal cells, so labels such as "běh" or "水泳"
// stay aligned.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}

// Truncate cuts every line to width terminal cells. A width of zero or less
// leaves lines untouched.
func Truncate(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = runewidth.Truncate(line, width, "…")
	}
	return out
}
