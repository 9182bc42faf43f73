package strategy

import "math"

// Epsilon 浮点数量比较容差，差值小于该值视为相等。
const Epsilon = 1e-6

// Params 单资产报价参数，agent 构造后不再修改。
type Params struct {
	TargetLiquidity float64 // 单侧最大挂单量
	HalfSpreadBps   int     // 半价差（基点）
	MaxBpsDiff      int     // 挂单价偏离目标价超过该基点数时需要重挂
	MaxAbsPosition  float64 // 最大绝对仓位
	Decimals        int     // 价格小数位数
}

// Quotes 一轮目标报价：lower 为买侧，upper 为卖侧。
type Quotes struct {
	LowerPx float64
	UpperPx float64
	LowerSz float64
	UpperSz float64
}

// Compute 根据 mid 价与当前仓位计算目标报价。纯函数，无副作用。
// 取整方向：买价向下、卖价向上，保证取整不会让实际价差窄于配置值。
// 仓位越接近上限，对应方向的挂单量越小，防止自身报价把仓位推出界。
func Compute(mid, position float64, p Params) Quotes {
	halfSpread := mid * float64(p.HalfSpreadBps) / 10000.0

	lowerPx := TruncateFloat(mid-halfSpread, p.Decimals, false)
	upperPx := TruncateFloat(mid+halfSpread, p.Decimals, true)

	// 价差小于一个 tick 时两侧会落到同一档位，此时把卖价抬高一个
	// tick，保证 lowerPx < upperPx 恒成立。
	if math.Abs(lowerPx-upperPx) < Epsilon {
		upperPx = lowerPx + tickSize(p.Decimals)
	}

	lowerSz := clamp(p.MaxAbsPosition-position, 0, p.TargetLiquidity)
	upperSz := clamp(p.MaxAbsPosition+position, 0, p.TargetLiquidity)

	return Quotes{
		LowerPx: lowerPx,
		UpperPx: upperPx,
		LowerSz: lowerSz,
		UpperSz: upperSz,
	}
}

// TruncateFloat 把 x 截断到 decimals 位小数。roundUp 为 true 时向上取整，
// 否则向下。1e-9 的修正量用来抵消二进制浮点表示带来的档位误差。
func TruncateFloat(x float64, decimals int, roundUp bool) float64 {
	pow := math.Pow10(decimals)
	if roundUp {
		return math.Ceil(x*pow-1e-9) / pow
	}
	return math.Floor(x*pow+1e-9) / pow
}

func tickSize(decimals int) float64 {
	return 1.0 / math.Pow10(decimals)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
