package agent

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"hyper-maker-go/gateway"
	"hyper-maker-go/order"
)

// InfoAPI 启动对账需要的查询接口，由 gateway.InfoClient 实现。
type InfoAPI interface {
	OpenOrders(ctx context.Context, user string) ([]gateway.OpenOrder, error)
	UserState(ctx context.Context, user string) (gateway.UserState, error)
}

// Sync 启动时与交易所对账：导入账户在本资产上的存量挂单和当前仓位。
// 任一查询失败都让 agent 启动失败，避免带着错误的本地状态开始报价。
func (a *Agent) Sync(ctx context.Context, info InfoAPI) error {
	open, err := info.OpenOrders(ctx, a.cfg.Account)
	if err != nil {
		return fmt.Errorf("sync open orders: %w", err)
	}
	for _, o := range open {
		if o.Coin != a.cfg.Asset {
			continue
		}
		size, err := strconv.ParseFloat(o.Sz, 64)
		if err != nil {
			return fmt.Errorf("sync open orders: size %q: %w", o.Sz, err)
		}
		price, err := strconv.ParseFloat(o.LimitPx, 64)
		if err != nil {
			return fmt.Errorf("sync open orders: price %q: %w", o.LimitPx, err)
		}
		isBuy := o.Side == "B"
		a.orders.Track(o.OID, isBuy)
		r := a.restingFor(isBuy)
		if r.Live() {
			// 同侧出现多张挂单说明上次没有干净退出：只认最后一张，
			// 多余的直接撤掉
			a.log.Warn("multiple resting orders on one side during sync",
				zap.Uint64("kept", o.OID), zap.Uint64("superseded", r.OID))
			a.orders.AttemptCancel(ctx, a.cfg.Asset, r.OID)
		}
		*r = order.Resting{OID: o.OID, Size: size, Price: price}
	}

	state, err := info.UserState(ctx, a.cfg.Account)
	if err != nil {
		return fmt.Errorf("sync user state: %w", err)
	}
	for _, p := range state.AssetPositions {
		if p.Position.Coin != a.cfg.Asset {
			continue
		}
		szi, err := strconv.ParseFloat(p.Position.Szi, 64)
		if err != nil {
			return fmt.Errorf("sync user state: szi %q: %w", p.Position.Szi, err)
		}
		a.pos.Set(szi)
	}

	a.log.Event("state_synced", map[string]interface{}{
		"asset": a.cfg.Asset, "position": a.pos.Net(),
	})
	return nil
}
