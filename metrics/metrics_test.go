package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.RecordQuote("ETH", true)
	c.RecordQuote("ETH", true)
	c.RecordQuote("ETH", false)
	c.RecordFill("ETH", false)
	c.RecordCancel("ETH")
	c.RecordGatewayError("SOL")

	if got := testutil.ToFloat64(c.QuotesPlaced.WithLabelValues("ETH", "buy")); got != 2 {
		t.Errorf("quotes buy = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.QuotesPlaced.WithLabelValues("ETH", "sell")); got != 1 {
		t.Errorf("quotes sell = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Fills.WithLabelValues("ETH", "sell")); got != 1 {
		t.Errorf("fills = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.GatewayErrors.WithLabelValues("SOL")); got != 1 {
		t.Errorf("gateway errors = %v, want 1", got)
	}
}

func TestCollectorGauges(t *testing.T) {
	c := NewCollector()
	c.UpdateMark("ETH", 100.05, -0.006, 1.25)

	expected := `
		# HELP maker_mid_price Latest observed mid price, by asset.
		# TYPE maker_mid_price gauge
		maker_mid_price{asset="ETH"} 100.05
	`
	if err := testutil.CollectAndCompare(c.MidPrice, strings.NewReader(expected)); err != nil {
		t.Errorf("mid price gauge mismatch: %v", err)
	}
	if got := testutil.ToFloat64(c.Position.WithLabelValues("ETH")); got != -0.006 {
		t.Errorf("position = %v", got)
	}
	if got := testutil.ToFloat64(c.Unrealized.WithLabelValues("ETH")); got != 1.25 {
		t.Errorf("pnl = %v", got)
	}
}

func TestRegistriesIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	a.RecordCancel("ETH")
	if got := testutil.ToFloat64(b.OrdersCanceled.WithLabelValues("ETH")); got != 0 {
		t.Errorf("second registry polluted: %v", got)
	}
}
