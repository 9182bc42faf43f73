package order

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"hyper-maker-go/infrastructure/logger"
	"hyper-maker-go/metrics"
)

// Gateway 提供下单/撤单抽象；由 gateway.ExchangeClient 实现，测试时注入 mock。
type Gateway interface {
	PlaceLimit(ctx context.Context, req PlaceRequest) (PlaceAck, error)
	Cancel(ctx context.Context, asset string, oid uint64) (CancelAck, error)
}

// Manager 维护两侧挂单记录与活跃订单索引，负责撤单/下单并根据网关
// 应答更新本地状态。所有字段只被所属 agent 的单个协程访问，无需加锁。
type Manager struct {
	gw    Gateway
	log   *logger.Logger
	stats *metrics.Collector

	// active 记录当前认为还挂在交易所上的订单：oid -> 是否买单。
	active map[uint64]bool
	lower  Resting
	upper  Resting
}

// NewManager 创建订单管理器，两侧挂单记录置为初始空状态。
// stats 可为 nil，此时不产出指标。
func NewManager(gw Gateway, log *logger.Logger, stats *metrics.Collector) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		gw:     gw,
		log:    log,
		stats:  stats,
		active: make(map[uint64]bool),
		lower:  EmptyResting(),
		upper:  EmptyResting(),
	}
}

// Lower 返回买侧挂单记录，调用方可直接修改。
func (m *Manager) Lower() *Resting { return &m.lower }

// Upper 返回卖侧挂单记录。
func (m *Manager) Upper() *Resting { return &m.upper }

// Track 把订单登记到活跃索引，启动对账时用于导入交易所已有挂单。
func (m *Manager) Track(oid uint64, isBuy bool) {
	if oid != 0 {
		m.active[oid] = isBuy
	}
}

// Untrack 把订单移出活跃索引，返回其方向。成交消化一个 oid 时调用。
func (m *Manager) Untrack(oid uint64) (isBuy bool, ok bool) {
	isBuy, ok = m.active[oid]
	if ok {
		delete(m.active, oid)
	}
	return isBuy, ok
}

// IsActive 判断订单是否还在活跃索引中。
func (m *Manager) IsActive(oid uint64) bool {
	_, ok := m.active[oid]
	return ok
}

// ActiveCount 活跃订单数量。
func (m *Manager) ActiveCount() int { return len(m.active) }

// AttemptCancel 尝试撤掉一个订单。返回 true 表示该订单确定已不在盘口
// （撤单成功，或交易所告知其早已不存在）；返回 false 表示状态不明，
// 本轮不应再做依赖于它的动作。
func (m *Manager) AttemptCancel(ctx context.Context, asset string, oid uint64) bool {
	if !m.IsActive(oid) {
		// 从未挂出、已撤或已成交，无需再发请求
		m.log.Info("cancel skipped, order not tracked", zap.Uint64("oid", oid))
		return true
	}

	ack, err := m.gw.Cancel(ctx, asset, oid)
	if err != nil {
		m.log.Error("cancel request failed", zap.String("asset", asset), zap.Uint64("oid", oid), zap.Error(err))
		if m.stats != nil {
			m.stats.RecordGatewayError(asset)
			m.stats.RecordCancelFailure(asset)
		}
		return false
	}
	if ack.Success {
		delete(m.active, oid)
		m.log.Event("order_cancelled", map[string]interface{}{"asset": asset, "oid": oid})
		if m.stats != nil {
			m.stats.RecordCancel(asset)
		}
		return true
	}
	if isBenignCancelErr(ack.Err) {
		// 交易所认知与本地认知良性分歧：订单已被成交或撤掉，视为幂等成功
		m.log.Info("cancel target already gone", zap.String("asset", asset), zap.Uint64("oid", oid), zap.String("reason", ack.Err))
		delete(m.active, oid)
		return true
	}
	m.log.Error("cancel rejected", zap.String("asset", asset), zap.Uint64("oid", oid), zap.String("reason", ack.Err))
	if m.stats != nil {
		m.stats.RecordCancelFailure(asset)
	}
	return false
}

// Place 挂一个 post-only 限价单。成功时返回 (挂出数量, oid) 并登记到
// 活跃索引；失败返回 (0, 0)。post-only 因越过盘口被拒属于预期内结果，
// 只记 info 日志，等下一个价格事件重试。
func (m *Manager) Place(ctx context.Context, asset string, size, price float64, isBuy bool) (float64, uint64) {
	ack, err := m.gw.PlaceLimit(ctx, PlaceRequest{
		Asset:      asset,
		IsBuy:      isBuy,
		Price:      price,
		Size:       size,
		ReduceOnly: false,
		TIF:        "Alo",
	})
	if err != nil {
		m.log.Error("place request failed", zap.String("asset", asset), zap.Bool("isBuy", isBuy), zap.Error(err))
		if m.stats != nil {
			m.stats.RecordGatewayError(asset)
		}
		return 0, 0
	}
	if ack.Resting {
		m.active[ack.OID] = isBuy
		m.log.Event("quote_placed", map[string]interface{}{
			"asset": asset, "side": sideName(isBuy), "price": price, "size": size, "oid": ack.OID,
		})
		if m.stats != nil {
			m.stats.RecordQuote(asset, isBuy)
		}
		return size, ack.OID
	}
	if ack.Err != "" {
		if isPostOnlyReject(ack.Err) {
			m.log.Event("quote_rejected_post_only", map[string]interface{}{
				"asset": asset, "side": sideName(isBuy), "price": price,
			})
			if m.stats != nil {
				m.stats.RecordReject(asset, isBuy)
			}
		} else {
			m.log.Error("place rejected", zap.String("asset", asset), zap.Bool("isBuy", isBuy), zap.String("reason", ack.Err))
			if m.stats != nil {
				m.stats.RecordGatewayError(asset)
			}
		}
	}
	return 0, 0
}

func sideName(isBuy bool) string {
	if isBuy {
		return "buy"
	}
	return "sell"
}

// isBenignCancelErr 识别表示订单早已离开盘口的错误信息。
func isBenignCancelErr(msg string) bool {
	return strings.Contains(msg, "Order does not exist") ||
		strings.Contains(msg, "already canceled") ||
		strings.Contains(msg, "Order already filled") ||
		strings.Contains(msg, "never placed")
}

// isPostOnlyReject 识别 post-only 单因会立即成交而被拒的错误信息。
func isPostOnlyReject(msg string) bool {
	return strings.Contains(msg, "Post only") ||
		strings.Contains(msg, "Invalid Time in Force")
}
