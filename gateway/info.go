package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// InfoClient 查询类接口：启动对账用的挂单与仓位快照。
// HTTPClient 可注入 httptest 的客户端。
type InfoClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    RateLimiter
}

// NewInfoClient 创建查询客户端。
func NewInfoClient(baseURL string) *InfoClient {
	return &InfoClient{
		BaseURL:    baseURL,
		HTTPClient: NewDefaultHTTPClient(),
		Limiter:    NewTokenBucketLimiter(10, 20),
	}
}

type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// OpenOrders 拉取账户当前全部挂单。
func (c *InfoClient) OpenOrders(ctx context.Context, user string) ([]OpenOrder, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	data, err := postJSON(ctx, c.HTTPClient, c.BaseURL+"/info", infoRequest{Type: "openOrders", User: user})
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}
	var orders []OpenOrder
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("open orders: decode: %w", err)
	}
	return orders, nil
}

// UserState 拉取账户清算所状态（含各资产带符号仓位）。
func (c *InfoClient) UserState(ctx context.Context, user string) (UserState, error) {
	if err := c.wait(ctx); err != nil {
		return UserState{}, err
	}
	data, err := postJSON(ctx, c.HTTPClient, c.BaseURL+"/info", infoRequest{Type: "clearinghouseState", User: user})
	if err != nil {
		return UserState{}, fmt.Errorf("user state: %w", err)
	}
	var state UserState
	if err := json.Unmarshal(data, &state); err != nil {
		return UserState{}, fmt.Errorf("user state: decode: %w", err)
	}
	return state, nil
}

func (c *InfoClient) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}
