package inventory

// Tracker 维护单一资产的净仓位与加权平均成本。
// 只被所属 agent 的单个协程访问，无需加锁。
type Tracker struct {
	net  float64
	cost float64
}

// ApplyFill 根据一笔成交调整仓位：买入为正，卖出为负。
func (t *Tracker) ApplyFill(size, price float64, isBuy bool) {
	delta := size
	if !isBuy {
		delta = -size
	}
	// 简化：加权平均成本
	totalValue := t.cost*t.net + price*delta
	t.net += delta
	if t.net != 0 {
		t.cost = totalValue / t.net
	} else {
		t.cost = 0
	}
}

// Set 用交易所返回的仓位覆盖本地值，启动对账时调用。
func (t *Tracker) Set(net float64) {
	t.net = net
}

// Net 当前净仓位。
func (t *Tracker) Net() float64 {
	return t.net
}
