package schedule

import (
	"strings"

	"prodplan/internal/model"
)

// MergeActuals 合并上传数据与规划器提取的数据
//
// 规划器数据在前且优先；上传条目仅当合并结果中不存在相同（日期, 名称）时追加。
// 日期按自然日比较，无法解析时退化为原始字符串比较；名称忽略大小写。
func MergeActuals(existing, uploaded []model.ActualDataItem) []model.ActualDataItem {
	merged := make([]model.ActualDataItem, 0, len(existing)+len(uploaded))
	seen := make(map[string]bool, len(existing)+len(uploaded))

	for _, it := range existing {
		merged = append(merged, it)
		seen[mergeKey(it)] = true
	}
	for _, it := range uploaded {
		key := mergeKey(it)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, it)
	}
	return merged
}

func mergeKey(it model.ActualDataItem) string {
	date := strings.TrimSpace(it.Date)
	if d, err := ParseDate(it.Date); err == nil {
		date = d.Format("2006-01-02")
	}
	return date + "|" + normalizeName(it.Name)
}

// CountMatched 统计排程中匹配到实际值的项数
func CountMatched(items []model.ScheduleItem) int {
	n := 0
	for _, it := range items {
		if it.Actual != nil {
			n++
		}
	}
	return n
}
