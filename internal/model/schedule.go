package model

import "time"

// ScheduleItem 一个（日期, 资源）组合及其实际值与目标值
type ScheduleItem struct {
	Date   time.Time      `json:"date"`
	Name   string         `json:"name"`
	Actual *float64       `json:"actual"`
	Values map[string]any `json:"values,omitempty"` // dailyColumn key -> 值（缺失为 nil）
	Target float64        `json:"target"`
}

// GenerationSummary 单次生成的概要（用于日志与接口返回）
type GenerationSummary struct {
	ProjectName      string   `json:"projectName"`
	FileName         string   `json:"fileName"`
	Days             int      `json:"days"`
	Resources        int      `json:"resources"`
	Rows             int      `json:"rows"`
	Weeks            int      `json:"weeks"`
	Goal             float64  `json:"goal"`
	TargetTotal      float64  `json:"targetTotal"`
	MatchedActuals   int      `json:"matchedActuals"`
	IncludeDashboard bool     `json:"includeDashboard"`
	Sheets           []string `json:"sheets"`
}
