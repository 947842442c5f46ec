package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"prodplan/internal/model"
)

const (
	// DashboardSheetName 看板表名称
	DashboardSheetName = "Dashboard"

	dashboardHeaderRow = 2
	dashboardFirstRow  = 3
)

// DefaultDashboardMetrics 内置看板指标（从第 3 行起依次排列，公式按此行号互相引用）
func DefaultDashboardMetrics(goal float64, unit string, days int) []model.DashboardMetric {
	goalLabel := "Overall Goal"
	if u := strings.TrimSpace(unit); u != "" {
		goalLabel = fmt.Sprintf("Overall Goal (%s)", u)
	}
	date := tableRef(DailyTableName, "Date")
	actual := tableRef(DailyTableName, "Actual")
	// 有实际值的不同日期数
	daysWithActual := fmt.Sprintf(`SUMPRODUCT((COUNTIFS(%s,%s,%s,"<>")>0)/COUNTIF(%s,%s))`,
		date, date, actual, date, date)

	return []model.DashboardMetric{
		{Label: goalLabel, Formula: strconv.FormatFloat(goal, 'f', -1, 64)},
		{Label: "Total Actual", Formula: fmt.Sprintf("SUM(%s)", actual)},
		{Label: "Total Remaining", Formula: "B3-B4"},
		{Label: "% Completion", Formula: "IFERROR(B4/B3,0)", Format: percentNumFmt},
		{Label: "Average Daily Production", Formula: fmt.Sprintf("IFERROR(B4/%s,0)", daysWithActual)},
		{
			Label:   "Required Daily Production",
			Formula: fmt.Sprintf("IFERROR(IF((%d-%s)<=0,0,B5/(%d-%s)),0)", days, daysWithActual, days, daysWithActual),
		},
		{
			Label:   "Status",
			Formula: fmt.Sprintf(`IF(B4>=B3,"Completed",IF(B7>=B3/%d,"On Track","Behind"))`, days),
		},
	}
}

// buildDashboardSheet 两列 KPI 看板
func buildDashboardSheet(b *builder, sheet string) error {
	f, st := b.f, b.st
	metrics := b.project.DashboardMetrics
	if len(metrics) == 0 {
		metrics = DefaultDashboardMetrics(b.project.Goal, b.project.Unit, b.days)
	}

	title := strings.TrimSpace(b.project.Name) + " Dashboard"
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", st.title); err != nil {
		return err
	}
	if err := writeHeaderRow(f, st, sheet, dashboardHeaderRow, []string{"Metric", "Value"}); err != nil {
		return err
	}

	for i, m := range metrics {
		r := dashboardFirstRow + i
		label, value := cellName(1, r), cellName(2, r)
		if err := f.SetCellValue(sheet, label, m.Label); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, label, label, st.text); err != nil {
			return err
		}
		if strings.TrimSpace(m.Formula) != "" {
			formula, err := SubstituteRowIndex(m.Formula, r)
			if err != nil {
				return fmt.Errorf("metric %q: %w", m.Label, err)
			}
			if err := f.SetCellFormula(sheet, value, formula); err != nil {
				return err
			}
		}
		if format := strings.TrimSpace(m.Format); format != "" {
			style, err := st.numberFormat(f, format)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, value, value, style); err != nil {
				return err
			}
			continue
		}
		if err := applyNumberFormatRules(f, st, sheet, 2, r, 2, r); err != nil {
			return fmt.Errorf("conditional format: %w", err)
		}
	}

	return setWidths(f, sheet, map[int]float64{1: 30, 2: 18})
}
