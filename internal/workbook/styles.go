package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	integerNumFmt = "#,##0"
	decimalNumFmt = "#,##0.00"
	percentNumFmt = "0.00%"
)

// styles 每个工作簿创建一次的样式集合
type styles struct {
	title  int
	band   int
	header int
	date   int
	text   int
	total  int

	// 条件格式用（dxf）
	condInteger int
	condDecimal int

	custom map[string]int
}

func newStyles(f *excelize.File, dateFormat string) (*styles, error) {
	s := &styles{custom: map[string]int{}}
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "#BFBFBF", Style: 1},
		{Type: "top", Color: "#BFBFBF", Style: 1},
		{Type: "right", Color: "#BFBFBF", Style: 1},
		{Type: "bottom", Color: "#BFBFBF", Style: 1},
	}

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	if s.band, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	}); err != nil {
		return nil, fmt.Errorf("create band style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	}); err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if s.date, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &dateFormat,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, fmt.Errorf("create date style: %w", err)
	}
	if s.text, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
	}); err != nil {
		return nil, fmt.Errorf("create text style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}
	intFmt, decFmt := integerNumFmt, decimalNumFmt
	if s.condInteger, err = f.NewConditionalStyle(&excelize.Style{CustomNumFmt: &intFmt}); err != nil {
		return nil, fmt.Errorf("create integer conditional style: %w", err)
	}
	if s.condDecimal, err = f.NewConditionalStyle(&excelize.Style{CustomNumFmt: &decFmt}); err != nil {
		return nil, fmt.Errorf("create decimal conditional style: %w", err)
	}
	return s, nil
}

// numberFormat 按自定义数字格式取样式（同一格式只建一次）
func (s *styles) numberFormat(f *excelize.File, format string) (int, error) {
	if id, ok := s.custom[format]; ok {
		return id, nil
	}
	fmtCopy := format
	id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtCopy})
	if err != nil {
		return 0, fmt.Errorf("create number format %q: %w", format, err)
	}
	s.custom[format] = id
	return id, nil
}

// applyNumberFormatRules 整数显示为 #,##0，非整数显示两位小数
//
// 规则公式锚定在区域左上角单元格，依赖相对引用逐格生效。
func applyNumberFormatRules(f *excelize.File, st *styles, sheet string, fromCol, fromRow, toCol, toRow int) error {
	if fromCol > toCol || fromRow > toRow {
		return nil
	}
	anchor := cellName(fromCol, fromRow)
	rangeRef := fmt.Sprintf("%s:%s", anchor, cellName(toCol, toRow))
	intStyle, decStyle := st.condInteger, st.condDecimal
	return f.SetConditionalFormat(sheet, rangeRef, []excelize.ConditionalFormatOptions{
		{
			Type:     "formula",
			Criteria: fmt.Sprintf("AND(ISNUMBER(%s),MOD(%s,1)=0)", anchor, anchor),
			Format:   &intStyle,
		},
		{
			Type:     "formula",
			Criteria: fmt.Sprintf("AND(ISNUMBER(%s),MOD(%s,1)<>0)", anchor, anchor),
			Format:   &decStyle,
		},
	})
}

// setWidths 批量设置列宽
func setWidths(f *excelize.File, sheet string, widths map[int]float64) error {
	for col, w := range widths {
		if w <= 0 {
			continue
		}
		name := columnLetter(col)
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return err
		}
	}
	return nil
}

// writeHeaderRow 写一行表头并套用表头样式
func writeHeaderRow(f *excelize.File, st *styles, sheet string, row int, headers []string) error {
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cellName(i+1, row), h); err != nil {
			return err
		}
	}
	if len(headers) == 0 {
		return nil
	}
	return f.SetCellStyle(sheet, cellName(1, row), cellName(len(headers), row), st.header)
}

// freezeRows 冻结前 n 行
func freezeRows(f *excelize.File, sheet string, n int) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      n,
		TopLeftCell: cellName(1, n+1),
		ActivePane:  "bottomLeft",
	})
}

// addTable 注册原生表格（表头 + 筛选按钮）
func addTable(f *excelize.File, sheet, name, styleName string, cols, lastRow int) error {
	if cols == 0 {
		return nil
	}
	// 表格至少包含表头和一行数据区域
	if lastRow < 2 {
		lastRow = 2
	}
	showStripes := true
	return f.AddTable(sheet, &excelize.Table{
		Range:          fmt.Sprintf("A1:%s", cellName(cols, lastRow)),
		Name:           name,
		StyleName:      styleName,
		ShowRowStripes: &showStripes,
	})
}
