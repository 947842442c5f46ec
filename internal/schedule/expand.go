package schedule

import (
	"strings"
	"time"

	"prodplan/internal/model"
)

// parsedActual 预解析后的实际数据；日期无法解析的条目 ok=false，永不参与匹配
type parsedActual struct {
	day  time.Time
	name string
	ok   bool
	item *model.ActualDataItem
}

// Expand 生成日期 × 资源的排程（日期为主序、资源为次序）
//
// 顺序决定后续目标分配的位置权重，不能改变。
func Expand(p *model.ProjectData) ([]model.ScheduleItem, error) {
	from, to, err := ParseRange(p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	days := Days(from, to)

	actuals := make([]parsedActual, len(p.ActualData))
	for i := range p.ActualData {
		a := &p.ActualData[i]
		pa := parsedActual{name: normalizeName(a.Name), item: a}
		if d, err := ParseDate(a.Date); err == nil {
			pa.day = d
			pa.ok = true
		}
		actuals[i] = pa
	}

	items := make([]model.ScheduleItem, 0, len(days)*len(p.Resources))
	for _, day := range days {
		for _, resource := range p.Resources {
			item := model.ScheduleItem{
				Date:   day,
				Name:   resource,
				Values: make(map[string]any, len(p.DailyColumns)),
			}
			match := findActual(actuals, day, normalizeName(resource))
			if match != nil && match.Actual != nil {
				v := *match.Actual
				item.Actual = &v
			}
			for _, col := range p.DailyColumns {
				if col.Key == "" {
					continue
				}
				if match == nil {
					item.Values[col.Key] = nil
					continue
				}
				v, _ := match.Field(col.Key)
				item.Values[col.Key] = v
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// findActual 返回第一条同日且名称（忽略大小写）相同的实际数据
func findActual(actuals []parsedActual, day time.Time, name string) *model.ActualDataItem {
	for _, a := range actuals {
		if !a.ok {
			continue
		}
		if SameDay(a.day, day) && a.name == name {
			return a.item
		}
	}
	return nil
}

// UnparsableActuals 日期无法解析、永不参与匹配的实际数据条数
func UnparsableActuals(actuals []model.ActualDataItem) int {
	n := 0
	for _, a := range actuals {
		if _, err := ParseDate(a.Date); err != nil {
			n++
		}
	}
	return n
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UniqueDates 按首次出现顺序返回排程中的不同日期
func UniqueDates(items []model.ScheduleItem) []time.Time {
	var out []time.Time
	seen := make(map[time.Time]bool)
	for _, it := range items {
		d := dayOf(it.Date)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// ISOWeeks 按首次出现顺序返回排程中的不同 ISO 周序号
func ISOWeeks(items []model.ScheduleItem) []int {
	var out []int
	seen := make(map[int]bool)
	for _, it := range items {
		_, w := it.Date.ISOWeek()
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
