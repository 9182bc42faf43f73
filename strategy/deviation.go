package strategy

import "math"

// BpsDiff 计算两个价格之间的基点差，以两者均值为基准，对调参数结果不变。
// 任一价格非正（如 -1 表示尚无挂单）时返回一个必然触发重挂的大值。
func BpsDiff(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return math.MaxFloat64
	}
	mean := (a + b) / 2.0
	return math.Abs(a-b) / mean * 10000.0
}

// NeedsRequote 判断某一侧挂单是否需要撤掉重挂：
// 挂单量偏离目标超过 Epsilon，或价格偏离超过 maxBpsDiff 个基点。
// 数量用严格容差，因为留在盘口的过期数量直接虚报了库存能力。
func NeedsRequote(targetPx, targetSz, restingPx, restingSz float64, maxBpsDiff int) bool {
	if math.Abs(targetSz-restingSz) > Epsilon {
		return true
	}
	return BpsDiff(targetPx, restingPx) > float64(maxBpsDiff)
}
