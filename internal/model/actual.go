package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ActualDataItem 一条实际观测记录 {date, name, actual, ...extra}
//
// 除 date/name/actual 外的字段全部收进 Extra，供 dailyColumns 按 key 取值。
type ActualDataItem struct {
	Date   string
	Name   string
	Actual *float64
	Extra  map[string]any
}

const (
	fieldDate   = "date"
	fieldName   = "name"
	fieldActual = "actual"
)

// Field 按 key 取值：date/name/actual 指向固定字段，其余先精确匹配再忽略大小写匹配 Extra
func (a ActualDataItem) Field(key string) (any, bool) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case fieldDate:
		return a.Date, true
	case fieldName:
		return a.Name, true
	case fieldActual:
		if a.Actual == nil {
			return nil, true
		}
		return *a.Actual, true
	}
	if v, ok := a.Extra[key]; ok {
		return v, true
	}
	for k, v := range a.Extra {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// UnmarshalJSON 解析扁平 JSON 对象
func (a *ActualDataItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return a.fromMap(raw)
}

// MarshalJSON 输出扁平 JSON 对象
func (a ActualDataItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+3)
	for k, v := range a.Extra {
		out[k] = v
	}
	out[fieldDate] = a.Date
	out[fieldName] = a.Name
	if a.Actual != nil {
		out[fieldActual] = *a.Actual
	} else {
		out[fieldActual] = nil
	}
	return json.Marshal(out)
}

// UnmarshalYAML 解析扁平 YAML 映射
func (a *ActualDataItem) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return a.fromMap(raw)
}

func (a *ActualDataItem) fromMap(raw map[string]any) error {
	*a = ActualDataItem{}
	for k, v := range raw {
		switch strings.ToLower(k) {
		case fieldDate:
			a.Date = scalarString(v)
		case fieldName:
			a.Name = scalarString(v)
		case fieldActual:
			f, ok, err := scalarFloat(v)
			if err != nil {
				return fmt.Errorf("actual: %w", err)
			}
			if ok {
				a.Actual = &f
			}
		default:
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[k] = v
		}
	}
	return nil
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case time.Time:
		return x.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// scalarFloat 把 actual 转成数值；空值/空串视为缺失
func scalarFloat(v any) (float64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return x, true, nil
	case float32:
		return float64(x), true, nil
	case int:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case uint64:
		return float64(x), true, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", x)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported type %T", v)
	}
}

// Float64 便捷构造 *float64
func Float64(v float64) *float64 {
	return &v
}
