package workbook

import (
	"fmt"
	"strings"

	"prodplan/internal/model"
)

const (
	// DailySheetName 明细表名称
	DailySheetName = "Raw Daily Key"
	// DailyTableName 明细原生表名，其余工作表通过结构化引用访问
	DailyTableName = "DailyProductionTable"
)

// 明细表固定列（1 起始列号）
const (
	dailyColDate = iota + 1
	dailyColDay
	dailyColWeek
	dailyColMonth
	dailyColName
	dailyColTarget
	dailyColActual
	dailyFixedCols = dailyColActual
)

var dailyFixedHeaders = []string{"Date", "Day", "Week", "Month", "Name", "Target", "Actual"}

// dailyColumn 明细表中实际输出的扩展列
type dailyColumn struct {
	def    model.DailyColumn
	header string
	col    int
}

// dailyColumns 过滤并去重扩展列；key 为 target/actual 的列由内置列承担
func dailyColumns(defs []model.DailyColumn) []dailyColumn {
	seen := headerSet{}
	for _, h := range dailyFixedHeaders {
		seen.add(h)
	}
	out := make([]dailyColumn, 0, len(defs))
	for _, d := range defs {
		switch strings.ToLower(strings.TrimSpace(d.Key)) {
		case "target", "actual":
			continue
		}
		out = append(out, dailyColumn{
			def:    d,
			header: seen.add(d.Header),
			col:    dailyFixedCols + len(out) + 1,
		})
	}
	return out
}

var tableColumnEscaper = strings.NewReplacer("'", "''", "[", "'[", "]", "']", "#", "'#")

// tableRef 结构化列引用，如 DailyProductionTable[Target]；列名中的 [ ] # ' 需用 ' 转义
func tableRef(table, column string) string {
	return fmt.Sprintf("%s[%s]", table, tableColumnEscaper.Replace(column))
}

// buildDailySheet 明细表：每个排程项一行，注册为 DailyProductionTable
func buildDailySheet(b *builder, sheet string) error {
	f, st := b.f, b.st
	extra := dailyColumns(b.project.DailyColumns)
	lastCol := dailyFixedCols + len(extra)

	headers := append([]string{}, dailyFixedHeaders...)
	for _, c := range extra {
		headers = append(headers, c.header)
	}
	if err := writeHeaderRow(f, st, sheet, 1, headers); err != nil {
		return err
	}

	for i, it := range b.items {
		r := i + 2
		if err := f.SetCellValue(sheet, cellName(dailyColDate, r), it.Date); err != nil {
			return err
		}
		formulas := map[int]string{
			dailyColDay:   fmt.Sprintf(`TEXT(A%d,"dddd")`, r),
			dailyColWeek:  fmt.Sprintf("WEEKNUM(A%d,21)", r),
			dailyColMonth: fmt.Sprintf(`TEXT(A%d,"mmmm")`, r),
		}
		for col, formula := range formulas {
			if err := f.SetCellFormula(sheet, cellName(col, r), formula); err != nil {
				return err
			}
		}
		if err := f.SetCellValue(sheet, cellName(dailyColName, r), it.Name); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cellName(dailyColTarget, r), it.Target); err != nil {
			return err
		}
		if it.Actual != nil {
			if err := f.SetCellValue(sheet, cellName(dailyColActual, r), *it.Actual); err != nil {
				return err
			}
		}

		for _, c := range extra {
			cell := cellName(c.col, r)
			if strings.TrimSpace(c.def.Formula) != "" {
				formula, err := SubstituteRowIndex(c.def.Formula, r)
				if err != nil {
					return fmt.Errorf("daily column %q: %w", c.header, err)
				}
				if err := f.SetCellFormula(sheet, cell, formula); err != nil {
					return err
				}
				continue
			}
			v := it.Values[c.def.Key]
			if v == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	tableLast := len(b.items) + 1
	if tableLast < 2 {
		tableLast = 2
	}
	if err := addTable(f, sheet, DailyTableName, b.opts.TableStyle, lastCol, tableLast); err != nil {
		return fmt.Errorf("add table %s: %w", DailyTableName, err)
	}

	// 合计行紧跟表格区域
	totalRow := tableLast + 1
	if err := f.SetCellValue(sheet, cellName(dailyColDate, totalRow), "Total"); err != nil {
		return err
	}
	type sumColumn struct {
		col    int
		header string
	}
	totalCols := []sumColumn{{dailyColTarget, "Target"}, {dailyColActual, "Actual"}}
	for _, c := range extra {
		totalCols = append(totalCols, sumColumn{c.col, c.header})
	}
	for _, tc := range totalCols {
		if IsRateHeader(tc.header) {
			continue
		}
		formula := fmt.Sprintf("SUBTOTAL(109,%s)", tableRef(DailyTableName, tc.header))
		if err := f.SetCellFormula(sheet, cellName(tc.col, totalRow), formula); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cellName(1, totalRow), cellName(lastCol, totalRow), st.total); err != nil {
		return err
	}

	if len(b.items) > 0 {
		if err := f.SetCellStyle(sheet, cellName(dailyColDate, 2), cellName(dailyColDate, tableLast), st.date); err != nil {
			return err
		}
	}
	if err := applyNumberFormatRules(f, st, sheet, dailyColTarget, 2, lastCol, totalRow); err != nil {
		return fmt.Errorf("conditional format: %w", err)
	}

	widths := map[int]float64{
		dailyColDate:   12,
		dailyColDay:    12,
		dailyColWeek:   8,
		dailyColMonth:  12,
		dailyColName:   18,
		dailyColTarget: 12,
		dailyColActual: 12,
	}
	for _, c := range extra {
		widths[c.col] = b.opts.DefaultColumnWidth
	}
	if err := setWidths(f, sheet, widths); err != nil {
		return err
	}
	return freezeRows(f, sheet, 1)
}
