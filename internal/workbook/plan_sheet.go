package workbook

import (
	"fmt"
	"strings"

	"prodplan/internal/model"
)

// PlanSheetFallback 项目名清洗后为空时的汇总表名
const PlanSheetFallback = "Production Plan"

const (
	planBandRow   = 1
	planHeaderRow = 3
	planFirstData = 4
	planColDate   = 1
	planColMonth  = 2
)

// planColumn 汇总表中一列（已按分组排序）
type planColumn struct {
	def     model.ProjectColumn
	section model.Section
	col     int
}

// planColumns 按 Target → Actual → Accumulative 分组，组内保持原顺序
func planColumns(defs []model.ProjectColumn) []planColumn {
	var out []planColumn
	for _, sec := range model.Sections {
		for _, d := range defs {
			s, ok := model.NormalizeSection(d.Section)
			if !ok || s != sec {
				continue
			}
			out = append(out, planColumn{def: d, section: s, col: planColMonth + len(out) + 1})
		}
	}
	return out
}

// planBand 合并的分组标题
type planBand struct {
	caption  string
	from, to int
}

// buildPlanSheet 汇总表：每个不同日期一行，三段合并表头 + Grand Total 行
func buildPlanSheet(b *builder, sheet string) error {
	f, st := b.f, b.st
	cols := planColumns(b.project.Columns)
	lastCol := planColMonth + len(cols)

	// 第 1-2 行：分组标题
	bands := []planBand{{"Period", planColDate, planColMonth}}
	for _, c := range cols {
		n := len(bands) - 1
		if n > 0 && bands[n].caption == string(c.section) {
			bands[n].to = c.col
			continue
		}
		bands = append(bands, planBand{string(c.section), c.col, c.col})
	}
	for _, band := range bands {
		topLeft, bottomRight := cellName(band.from, planBandRow), cellName(band.to, planBandRow+1)
		if err := f.SetCellValue(sheet, topLeft, band.caption); err != nil {
			return err
		}
		if err := f.MergeCell(sheet, topLeft, bottomRight); err != nil {
			return fmt.Errorf("merge band %s: %w", band.caption, err)
		}
		if err := f.SetCellStyle(sheet, topLeft, bottomRight, st.band); err != nil {
			return err
		}
	}

	headers := []string{"Date", "Month"}
	for _, c := range cols {
		headers = append(headers, strings.TrimSpace(c.def.Header))
	}
	if err := writeHeaderRow(f, st, sheet, planHeaderRow, headers); err != nil {
		return err
	}

	for i, day := range b.dates {
		r := planFirstData + i
		if err := f.SetCellValue(sheet, cellName(planColDate, r), day); err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, cellName(planColMonth, r), fmt.Sprintf(`TEXT(A%d,"mmmm")`, r)); err != nil {
			return err
		}
		for _, c := range cols {
			if strings.TrimSpace(c.def.Formula) == "" {
				continue
			}
			formula, err := SubstituteRowIndex(c.def.Formula, r)
			if err != nil {
				return fmt.Errorf("column %q: %w", c.def.Header, err)
			}
			if err := f.SetCellFormula(sheet, cellName(c.col, r), formula); err != nil {
				return err
			}
		}
	}

	lastData := planFirstData + len(b.dates) - 1
	totalRow := lastData + 1
	if err := f.SetCellValue(sheet, cellName(planColDate, totalRow), "Grand Total"); err != nil {
		return err
	}
	for _, c := range cols {
		if IsRateHeader(c.def.Header) {
			continue
		}
		cell := cellName(c.col, totalRow)
		if len(b.dates) == 0 {
			if err := f.SetCellValue(sheet, cell, 0); err != nil {
				return err
			}
			continue
		}
		letter := columnLetter(c.col)
		formula := fmt.Sprintf("SUM(%s%d:%s%d)", letter, planFirstData, letter, lastData)
		if err := f.SetCellFormula(sheet, cell, formula); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cellName(1, totalRow), cellName(lastCol, totalRow), st.total); err != nil {
		return err
	}

	if len(b.dates) > 0 {
		if err := f.SetCellStyle(sheet, cellName(planColDate, planFirstData), cellName(planColDate, lastData), st.date); err != nil {
			return err
		}
	}
	if len(cols) > 0 {
		if err := applyNumberFormatRules(f, st, sheet, planColMonth+1, planFirstData, lastCol, totalRow); err != nil {
			return fmt.Errorf("conditional format: %w", err)
		}
	}

	widths := map[int]float64{planColDate: 14, planColMonth: 12}
	for _, c := range cols {
		widths[c.col] = b.opts.DefaultColumnWidth
		if c.def.Width > 0 {
			widths[c.col] = c.def.Width
		}
	}
	if err := setWidths(f, sheet, widths); err != nil {
		return err
	}
	return freezeRows(f, sheet, planHeaderRow)
}
