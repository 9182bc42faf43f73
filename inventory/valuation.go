package inventory

// Valuation 基于当前 mid 价计算未实现盈亏，仅用于指标与日志，
// 不参与报价决策。
func (t *Tracker) Valuation(mid float64) (net float64, pnl float64) {
	net = t.net
	pnl = (mid - t.cost) * t.net
	return
}
