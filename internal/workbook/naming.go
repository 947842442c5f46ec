package workbook

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// MaxSheetNameLength Excel 工作表名长度上限
const MaxSheetNameLength = 31

// excelReservedSheetName Excel 保留的工作表名，不能作为项目表名
const excelReservedSheetName = "History"

// RowIndexPlaceholder 公式模板中唯一识别的占位符
const RowIndexPlaceholder = "{rowIndex}"

var (
	illegalSheetChars = strings.NewReplacer("/", "", "\\", "", ":", "", "*", "", "?", "", "[", "", "]", "")
	illegalFileChars  = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)
	leftoverRowIndex  = regexp.MustCompile(`(?i)\{\s*row_?index`)
)

// ColumnLetter 1 起始列号转列字母：1->A, 26->Z, 27->AA
func ColumnLetter(n int) (string, error) {
	return excelize.ColumnNumberToName(n)
}

// cellName 列号 + 行号 -> 单元格坐标
//
// 调用方保证 col/row 在 Excel 上限内。
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func columnLetter(col int) string {
	name, _ := ColumnLetter(col)
	return name
}

// SanitizeSheetName 去掉工作表名非法字符并截断到 31 个字符，结果为空时用 fallback
func SanitizeSheetName(name, fallback string) string {
	s := illegalSheetChars.Replace(name)
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "'")
	if utf8.RuneCountInString(s) > MaxSheetNameLength {
		s = string([]rune(s)[:MaxSheetNameLength])
		s = strings.TrimRight(s, " '")
	}
	if s == "" {
		return fallback
	}
	return s
}

// uniqueSheetName 与已占用名称（忽略大小写）冲突时追加序号
func uniqueSheetName(name string, taken []string) string {
	clash := func(candidate string) bool {
		for _, t := range taken {
			if strings.EqualFold(t, candidate) {
				return true
			}
		}
		return false
	}
	if !clash(name) {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(name)
		if max := MaxSheetNameLength - utf8.RuneCountInString(suffix); len(base) > max {
			base = base[:max]
		}
		candidate := string(base) + suffix
		if !clash(candidate) {
			return candidate
		}
	}
}

// FileName 输出文件名：项目名 + _Production_Plan.xlsx
func FileName(projectName string) string {
	base := illegalFileChars.ReplaceAllString(projectName, "_")
	base = strings.Trim(base, "_.")
	if base == "" {
		base = "Project"
	}
	return base + "_Production_Plan.xlsx"
}

// SubstituteRowIndex 把模板中所有 {rowIndex} 替换为行号
//
// 公式本身不做解析，只做占位符替换；残留的畸形占位符视为错误。
func SubstituteRowIndex(tmpl string, row int) (string, error) {
	s := strings.TrimSpace(tmpl)
	s = strings.TrimPrefix(s, "=")
	s = strings.ReplaceAll(s, RowIndexPlaceholder, strconv.Itoa(row))
	if loc := leftoverRowIndex.FindStringIndex(s); loc != nil {
		return "", fmt.Errorf("malformed row placeholder %q in formula %q", s[loc[0]:loc[1]], tmpl)
	}
	return s, nil
}

// IsRateHeader 表头含 rate / percent / % 的列视为比率列，不参与合计
func IsRateHeader(header string) bool {
	h := strings.ToLower(header)
	return strings.Contains(h, "rate") || strings.Contains(h, "percent") || strings.Contains(h, "%")
}

// headerSet 保证表格列名唯一（Excel 表列名不区分大小写）
type headerSet map[string]bool

func (s headerSet) add(header string) string {
	h := strings.TrimSpace(header)
	if h == "" {
		h = "Column"
	}
	candidate := h
	for i := 2; s[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s %d", h, i)
	}
	s[strings.ToLower(candidate)] = true
	return candidate
}
