package schedule

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
}

// RangeError 日期范围错误，Field 指明出错字段（startDate / endDate）
type RangeError struct {
	Field string
	Value string
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *RangeError) Unwrap() error { return e.Err }

// ParseDate 解析日期并截断到自然日（UTC），时分秒被忽略
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return dayOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// dayOf 取自然日：保留原始时区下的年月日
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseRange 解析并校验闭区间 [start, end]
func ParseRange(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, &RangeError{Field: "startDate", Value: start, Err: err}
	}
	to, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, &RangeError{Field: "endDate", Value: end, Err: err}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, &RangeError{
			Field: "endDate",
			Value: end,
			Err:   fmt.Errorf("precedes startDate %s", from.Format("2006-01-02")),
		}
	}
	return from, to, nil
}

// Days 枚举闭区间内的每个自然日
func Days(from, to time.Time) []time.Time {
	from, to = dayOf(from), dayOf(to)
	if to.Before(from) {
		return nil
	}
	n := int(to.Sub(from).Hours()/24) + 1
	days := make([]time.Time, 0, n)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// SameDay 判断两个时间是否落在同一自然日
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
