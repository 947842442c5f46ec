package workbook

import (
	"fmt"
	"strings"

	"prodplan/internal/model"
)

const (
	// PivotSheetName 周汇总表名称
	PivotSheetName = "Weekly Pivot"
	// PivotTableName 周汇总原生表名
	PivotTableName = "WeeklyPivotTable"

	pivotFixedCols = 2
)

// DefaultPivotColumns 未提供 pivotColumns 时的内置周汇总列
//
// 公式中的 A{rowIndex} 为本表的周序号单元格。
func DefaultPivotColumns() []model.PivotColumn {
	target := tableRef(DailyTableName, "Target")
	actual := tableRef(DailyTableName, "Actual")
	week := tableRef(DailyTableName, "Week")
	return []model.PivotColumn{
		{Header: "Total Target", Formula: fmt.Sprintf("SUMIFS(%s,%s,A%s)", target, week, RowIndexPlaceholder), Width: 14},
		{Header: "Total Actual", Formula: fmt.Sprintf("SUMIFS(%s,%s,A%s)", actual, week, RowIndexPlaceholder), Width: 14},
		{
			Header:  "Total Variance",
			Formula: fmt.Sprintf("SUMIFS(%s,%s,A%s)-SUMIFS(%s,%s,A%s)", actual, week, RowIndexPlaceholder, target, week, RowIndexPlaceholder),
			Width:   14,
		},
		{Header: "Cumulative Actual", Formula: fmt.Sprintf("SUM($D$2:D%s)", RowIndexPlaceholder), Width: 16},
	}
}

// buildPivotSheet 周汇总：每个不同 ISO 周序号一行，注册为 WeeklyPivotTable
func buildPivotSheet(b *builder, sheet string) error {
	f, st := b.f, b.st
	defs := b.project.PivotColumns
	if len(defs) == 0 {
		defs = DefaultPivotColumns()
	}
	lastCol := pivotFixedCols + len(defs)

	seen := headerSet{}
	headers := []string{seen.add("Week"), seen.add("Month")}
	for _, d := range defs {
		headers = append(headers, seen.add(d.Header))
	}
	if err := writeHeaderRow(f, st, sheet, 1, headers); err != nil {
		return err
	}

	monthLookup := fmt.Sprintf("INDEX(%s,MATCH(A%%d,%s,0))",
		tableRef(DailyTableName, "Month"), tableRef(DailyTableName, "Week"))
	for i, week := range b.weeks {
		r := i + 2
		if err := f.SetCellValue(sheet, cellName(1, r), week); err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, cellName(2, r), fmt.Sprintf(monthLookup, r)); err != nil {
			return err
		}
		for j, d := range defs {
			if strings.TrimSpace(d.Formula) == "" {
				continue
			}
			formula, err := SubstituteRowIndex(d.Formula, r)
			if err != nil {
				return fmt.Errorf("pivot column %q: %w", d.Header, err)
			}
			if err := f.SetCellFormula(sheet, cellName(pivotFixedCols+j+1, r), formula); err != nil {
				return err
			}
		}
	}

	lastRow := len(b.weeks) + 1
	if lastRow < 2 {
		lastRow = 2
	}
	if err := addTable(f, sheet, PivotTableName, b.opts.TableStyle, lastCol, lastRow); err != nil {
		return fmt.Errorf("add table %s: %w", PivotTableName, err)
	}
	if err := applyNumberFormatRules(f, st, sheet, pivotFixedCols+1, 2, lastCol, lastRow); err != nil {
		return fmt.Errorf("conditional format: %w", err)
	}

	widths := map[int]float64{1: 8, 2: 12}
	for j, d := range defs {
		widths[pivotFixedCols+j+1] = b.opts.DefaultColumnWidth
		if d.Width > 0 {
			widths[pivotFixedCols+j+1] = d.Width
		}
	}
	if err := setWidths(f, sheet, widths); err != nil {
		return err
	}
	return freezeRows(f, sheet, 1)
}
