package schedule

import "prodplan/internal/model"

// 三段式权重曲线的分段点与取值
const (
	rampEnd     = 0.25
	growthEnd   = 0.75
	rampStart   = 0.3
	growthStart = 0.6
	plateau     = 1.0
)

// Weight 按归一化位置 t∈[0,1] 计算权重：爬坡 0.3→0.6，增长 0.6→1.0，平台 1.0
func Weight(t float64) float64 {
	switch {
	case t < rampEnd:
		return rampStart + (growthStart-rampStart)*(t/rampEnd)
	case t < growthEnd:
		return growthStart + (plateau-growthStart)*((t-rampEnd)/(growthEnd-rampEnd))
	default:
		return plateau
	}
}

// Position 第 i 项（共 n 项）的归一化位置；n==1 时为 0
func Position(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// Weights 计算整条排程的位置权重
func Weights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = Weight(Position(i, n))
	}
	return w
}

// Distribute 按权重占比把 goal 分配到每一项的 Target（原地写入）
//
// 每项只取决于自身位置，不是累计曲线；合计严格等于 goal（浮点误差内）。
func Distribute(items []model.ScheduleItem, goal float64) {
	if len(items) == 0 {
		return
	}
	weights := Weights(len(items))
	total := 0.0
	for _, w := range weights {
		total += w
	}
	for i := range items {
		items[i].Target = weights[i] / total * goal
	}
}

// TargetTotal 合计目标值
func TargetTotal(items []model.ScheduleItem) float64 {
	sum := 0.0
	for _, it := range items {
		sum += it.Target
	}
	return sum
}
