package agent

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"hyper-maker-go/gateway"
	"hyper-maker-go/infrastructure/logger"
	"hyper-maker-go/inventory"
	"hyper-maker-go/metrics"
	"hyper-maker-go/order"
	"hyper-maker-go/strategy"
)

// Config 单资产 agent 的全部参数。
type Config struct {
	Asset   string
	Account string
	Params  strategy.Params
}

// Agent 在单个协程里驱动一条资产的完整做市循环：消费价格与成交事件，
// 维护仓位与两侧挂单，并在报价失效时撤旧挂新。字段只被 Run 协程访问，
// 不加锁。
type Agent struct {
	cfg    Config
	orders *order.Manager
	pos    *inventory.Tracker
	log    *logger.Logger
	stats  *metrics.Collector

	// latestMid 为 -1 表示尚未收到第一条价格，此前的成交事件一律忽略。
	latestMid float64
	events    chan gateway.Message
}

// New 创建 agent。stats 可为 nil。
func New(cfg Config, orders *order.Manager, pos *inventory.Tracker, log *logger.Logger, stats *metrics.Collector) *Agent {
	if log == nil {
		log = logger.Nop()
	}
	return &Agent{
		cfg:       cfg,
		orders:    orders,
		pos:       pos,
		log:       log.With(zap.String("asset", cfg.Asset)),
		stats:     stats,
		latestMid: -1.0,
		events:    make(chan gateway.Message, 256),
	}
}

// Events 返回事件入口 channel，交给流客户端作为 sink。
func (a *Agent) Events() chan gateway.Message {
	return a.events
}

// Run 消费事件直到 ctx 取消。
func (a *Agent) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-a.events:
			a.processMessage(ctx, msg)
		}
	}
}

func (a *Agent) processMessage(ctx context.Context, msg gateway.Message) {
	switch msg.Channel {
	case gateway.ChannelAllMids:
		a.onAllMids(ctx, msg)
	case gateway.ChannelUser:
		a.onUserEvents(ctx, msg)
	default:
		a.log.Warn("unsupported stream message", zap.String("channel", msg.Channel))
	}
}

func (a *Agent) onAllMids(ctx context.Context, msg gateway.Message) {
	data, err := gateway.DecodeAllMids(msg)
	if err != nil {
		a.log.Warn("bad allMids payload", zap.Error(err))
		return
	}
	raw, ok := data.Mids[a.cfg.Asset]
	if !ok {
		return
	}
	mid, err := strconv.ParseFloat(raw, 64)
	if err != nil || mid <= 0 {
		a.log.Warn("unparseable mid price", zap.String("raw", raw))
		return
	}
	a.latestMid = mid
	if a.stats != nil {
		net, pnl := a.pos.Valuation(mid)
		a.stats.UpdateMark(a.cfg.Asset, mid, net, pnl)
	}
	a.potentiallyUpdate(ctx)
}

func (a *Agent) onUserEvents(ctx context.Context, msg gateway.Message) {
	if a.latestMid < 0 {
		// 还没有价格基准，无法安全地重新报价
		a.log.Debug("ignoring user events before first price update")
		return
	}
	data, err := gateway.DecodeUserEvents(msg)
	if err != nil {
		a.log.Warn("bad user events payload", zap.Error(err))
		return
	}
	touched := false
	for _, fill := range data.Fills {
		if fill.Coin != a.cfg.Asset {
			continue
		}
		a.applyFill(fill)
		touched = true
	}
	// 一批成交只触发一轮报价更新
	if touched {
		a.potentiallyUpdate(ctx)
	}
}

// applyFill 把一笔成交落到仓位与挂单记录上。成交消耗了哪张订单由
// oid 对照活跃索引判定：对上号的订单（哪怕只是部分成交）立即移出
// 索引，剩余数量留在挂单记录里等下一轮对账处理。
func (a *Agent) applyFill(fill gateway.Fill) {
	size, err := strconv.ParseFloat(fill.Sz, 64)
	if err != nil {
		a.log.Warn("unparseable fill size", zap.String("raw", fill.Sz))
		return
	}
	price, err := strconv.ParseFloat(fill.Px, 64)
	if err != nil {
		a.log.Warn("unparseable fill price", zap.String("raw", fill.Px))
		return
	}
	isBuy := fill.Side == "B"

	a.pos.ApplyFill(size, price, isBuy)
	if a.stats != nil {
		a.stats.RecordFill(a.cfg.Asset, isBuy)
	}

	wasBuy, tracked := a.orders.Untrack(fill.OID)
	if !tracked {
		// 手工下的单或对账之前的残留：仓位已经吸收，但挂单记录对不上号
		a.log.Event("untracked_fill", map[string]interface{}{"asset": a.cfg.Asset, "oid": fill.OID})
		return
	}
	if wasBuy != isBuy {
		a.orders.Track(fill.OID, wasBuy)
		a.log.Warn("fill side disagrees with tracked order", zap.Uint64("oid", fill.OID))
		return
	}

	side := "sell"
	if isBuy {
		side = "buy"
	}
	a.log.Event("fill", map[string]interface{}{
		"asset": a.cfg.Asset, "side": side, "size": size, "oid": fill.OID,
	})

	r := a.restingFor(isBuy)
	if r.OID == fill.OID {
		r.Size -= size
		if r.Size < strategy.Epsilon {
			*r = order.EmptyResting()
		}
	}
}

func (a *Agent) restingFor(isBuy bool) *order.Resting {
	if isBuy {
		return a.orders.Lower()
	}
	return a.orders.Upper()
}

// potentiallyUpdate 对照最新 mid 价与仓位重新计算两侧目标报价。
// 先把失效的两侧都撤干净，再挂新单，避免新旧单同时在盘口放大敞口。
// 任何一次撤单结局不明都中止整轮更新（另一侧也不动）：撤不掉通常
// 意味着本地认知已经过期，马上会有成交事件带着新状态重新触发。
func (a *Agent) potentiallyUpdate(ctx context.Context) {
	q := strategy.Compute(a.latestMid, a.pos.Net(), a.cfg.Params)
	lower, upper := a.orders.Lower(), a.orders.Upper()
	p := a.cfg.Params
	lowerStale := strategy.NeedsRequote(q.LowerPx, q.LowerSz, lower.Price, lower.Size, p.MaxBpsDiff)
	upperStale := strategy.NeedsRequote(q.UpperPx, q.UpperSz, upper.Price, upper.Size, p.MaxBpsDiff)

	if lowerStale && lower.Live() {
		if !a.orders.AttemptCancel(ctx, a.cfg.Asset, lower.OID) {
			return
		}
		*lower = order.EmptyResting()
	}
	if upperStale && upper.Live() {
		if !a.orders.AttemptCancel(ctx, a.cfg.Asset, upper.OID) {
			return
		}
		*upper = order.EmptyResting()
	}

	if lowerStale && q.LowerSz > strategy.Epsilon {
		placed, oid := a.orders.Place(ctx, a.cfg.Asset, q.LowerSz, q.LowerPx, true)
		// 失败也照记：oid 0 / 数量 0 本身就是"这侧没挂上"的合法状态
		lower.OID, lower.Size, lower.Price = oid, placed, q.LowerPx
	}
	if upperStale && q.UpperSz > strategy.Epsilon {
		placed, oid := a.orders.Place(ctx, a.cfg.Asset, q.UpperSz, q.UpperPx, false)
		upper.OID, upper.Size, upper.Price = oid, placed, q.UpperPx
	}
}
