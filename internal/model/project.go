package model

import (
	"fmt"
	"strings"
)

// Section 汇总表列分组
type Section string

const (
	SectionTarget       Section = "Target"
	SectionActual       Section = "Actual"
	SectionAccumulative Section = "Accumulative"
)

// Sections 汇总表分组的固定顺序
var Sections = []Section{SectionTarget, SectionActual, SectionAccumulative}

// NormalizeSection 大小写不敏感地识别分组名
func NormalizeSection(s string) (Section, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "target":
		return SectionTarget, true
	case "actual":
		return SectionActual, true
	case "accumulative", "cumulative":
		return SectionAccumulative, true
	}
	return "", false
}

// ProjectData 上游规划器输出的项目描述（单次生成内只读）
type ProjectData struct {
	Name             string            `json:"name" yaml:"name"`
	Goal             float64           `json:"goal" yaml:"goal"`
	Unit             string            `json:"unit" yaml:"unit"`
	StartDate        string            `json:"startDate" yaml:"startDate"`
	EndDate          string            `json:"endDate" yaml:"endDate"`
	Resources        []string          `json:"resources" yaml:"resources"`
	ActualData       []ActualDataItem  `json:"actualData,omitempty" yaml:"actualData,omitempty"`
	Columns          []ProjectColumn   `json:"columns" yaml:"columns"`
	DailyColumns     []DailyColumn     `json:"dailyColumns" yaml:"dailyColumns"`
	PivotColumns     []PivotColumn     `json:"pivotColumns,omitempty" yaml:"pivotColumns,omitempty"`
	DashboardMetrics []DashboardMetric `json:"dashboardMetrics,omitempty" yaml:"dashboardMetrics,omitempty"`
}

// ProjectColumn 汇总表（Production Plan）列定义
type ProjectColumn struct {
	Header  string  `json:"header" yaml:"header"`
	Key     string  `json:"key" yaml:"key"`
	Section string  `json:"section" yaml:"section"`
	Formula string  `json:"formula,omitempty" yaml:"formula,omitempty"`
	Width   float64 `json:"width,omitempty" yaml:"width,omitempty"`
}

// DailyColumn 明细表（Raw Daily Key）列定义；无公式时取实际数据同名字段
type DailyColumn struct {
	Header  string `json:"header" yaml:"header"`
	Key     string `json:"key" yaml:"key"`
	Formula string `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// PivotColumn 周汇总列定义
type PivotColumn struct {
	Header  string  `json:"header" yaml:"header"`
	Formula string  `json:"formula" yaml:"formula"`
	Width   float64 `json:"width,omitempty" yaml:"width,omitempty"`
}

// DashboardMetric 看板指标
type DashboardMetric struct {
	Label   string `json:"label" yaml:"label"`
	Formula string `json:"formula" yaml:"formula"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ValidationError 输入校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate 校验生成所需的结构性字段（日期范围由 schedule 包单独解析校验）
func (p *ProjectData) Validate() error {
	if p == nil {
		return &ValidationError{Field: "project", Message: "is nil"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	for i, c := range p.Columns {
		if strings.TrimSpace(c.Header) == "" {
			return &ValidationError{Field: fmt.Sprintf("columns[%d].header", i), Message: "must not be empty"}
		}
		if _, ok := NormalizeSection(c.Section); !ok {
			return &ValidationError{
				Field:   fmt.Sprintf("columns[%d].section", i),
				Message: fmt.Sprintf("unknown section %q (want Target, Actual or Accumulative)", c.Section),
			}
		}
	}
	for i, c := range p.DailyColumns {
		if strings.TrimSpace(c.Header) == "" {
			return &ValidationError{Field: fmt.Sprintf("dailyColumns[%d].header", i), Message: "must not be empty"}
		}
	}
	for i, c := range p.PivotColumns {
		if strings.TrimSpace(c.Header) == "" {
			return &ValidationError{Field: fmt.Sprintf("pivotColumns[%d].header", i), Message: "must not be empty"}
		}
	}
	for i, m := range p.DashboardMetrics {
		if strings.TrimSpace(m.Label) == "" {
			return &ValidationError{Field: fmt.Sprintf("dashboardMetrics[%d].label", i), Message: "must not be empty"}
		}
	}
	return nil
}
