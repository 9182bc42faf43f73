package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 汇集做市过程中的运行指标，按资产打标签。
// 所有指标注册在自带的 Registry 上，测试之间互不污染。
type Collector struct {
	registry *prometheus.Registry

	QuotesPlaced   *prometheus.CounterVec
	QuotesRejected *prometheus.CounterVec
	OrdersCanceled *prometheus.CounterVec
	CancelFailures *prometheus.CounterVec
	Fills          *prometheus.CounterVec
	GatewayErrors  *prometheus.CounterVec

	Position   *prometheus.GaugeVec
	MidPrice   *prometheus.GaugeVec
	Unrealized *prometheus.GaugeVec
}

// NewCollector 创建指标收集器。
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		QuotesPlaced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maker_quotes_placed_total",
			Help: "Resting quotes successfully placed, by asset and side.",
		}, []string{"asset", "side"}),
		QuotesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maker_quotes_rejected_total",
			Help: "Post-only quotes rejected by the exchange, by asset and side.",
		}, []string{"asset", "side"}),
		OrdersCanceled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maker_orders_canceled_total",
			Help: "Orders confirmed off the book, by asset.",
		}, []string{"asset"}),
		CancelFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maker_cancel_failures_total",
			Help: "Cancel attempts whose outcome stayed unknown, by asset.",
		}, []string{"asset"}),
		Fills: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maker_fills_total",
			Help: "Fill events applied to local position, by asset and side.",
		}, []string{"asset", "side"}),
		GatewayErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maker_gateway_errors_total",
			Help: "Transport or decode failures talking to the exchange, by asset.",
		}, []string{"asset"}),
		Position: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "maker_position",
			Help: "Current signed net position, by asset.",
		}, []string{"asset"}),
		MidPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "maker_mid_price",
			Help: "Latest observed mid price, by asset.",
		}, []string{"asset"}),
		Unrealized: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "maker_unrealized_pnl",
			Help: "Mark-to-mid unrealized PnL, by asset.",
		}, []string{"asset"}),
	}
}

// Registry 暴露底层注册表，供 handler 与测试抓取。
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回抓取端点的 http.Handler。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer 在独立协程里挂出 /metrics，ctx 取消时优雅关闭。
func (c *Collector) StartServer(ctx context.Context, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv
}

func sideLabel(isBuy bool) string {
	if isBuy {
		return "buy"
	}
	return "sell"
}

// RecordQuote 记一次成功挂单。
func (c *Collector) RecordQuote(asset string, isBuy bool) {
	c.QuotesPlaced.WithLabelValues(asset, sideLabel(isBuy)).Inc()
}

// RecordReject 记一次 post-only 被拒。
func (c *Collector) RecordReject(asset string, isBuy bool) {
	c.QuotesRejected.WithLabelValues(asset, sideLabel(isBuy)).Inc()
}

// RecordCancel 记一次确认离场的撤单。
func (c *Collector) RecordCancel(asset string) {
	c.OrdersCanceled.WithLabelValues(asset).Inc()
}

// RecordCancelFailure 记一次结局不明的撤单。
func (c *Collector) RecordCancelFailure(asset string) {
	c.CancelFailures.WithLabelValues(asset).Inc()
}

// RecordFill 记一笔成交。
func (c *Collector) RecordFill(asset string, isBuy bool) {
	c.Fills.WithLabelValues(asset, sideLabel(isBuy)).Inc()
}

// RecordGatewayError 记一次网关层失败。
func (c *Collector) RecordGatewayError(asset string) {
	c.GatewayErrors.WithLabelValues(asset).Inc()
}

// UpdateMark 刷新 mid 价、仓位与未实现盈亏三个仪表。
func (c *Collector) UpdateMark(asset string, mid, position, pnl float64) {
	c.MidPrice.WithLabelValues(asset).Set(mid)
	c.Position.WithLabelValues(asset).Set(position)
	c.Unrealized.WithLabelValues(asset).Set(pnl)
}
