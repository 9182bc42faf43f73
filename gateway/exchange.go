package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hyper-maker-go/order"
)

// ErrMalformedResponse 表示交易所返回了无法解读的应答体。
// 调用方把它当作一次失败的操作处理，而不是崩溃。
var ErrMalformedResponse = errors.New("malformed exchange response")

// ExchangeClient 订单入口网关：下单与撤单。实现 order.Gateway。
// 每个 agent 实例持有独立的 ExchangeClient（凭证按实例克隆），
// 避免共享可变签名状态。
type ExchangeClient struct {
	BaseURL    string
	Account    string
	Secret     string
	HTTPClient *http.Client
	Limiter    RateLimiter

	// nowMillis 可替换，测试时固定 nonce。
	nowMillis func() int64
}

// NewExchangeClient 创建订单网关客户端。
func NewExchangeClient(baseURL, account, secret string) *ExchangeClient {
	return &ExchangeClient{
		BaseURL:    baseURL,
		Account:    account,
		Secret:     secret,
		HTTPClient: NewDefaultHTTPClient(),
		Limiter:    NewTokenBucketLimiter(10, 20),
		nowMillis:  func() int64 { return time.Now().UnixMilli() },
	}
}

type wireLimit struct {
	TIF string `json:"tif"`
}

type wireOrderType struct {
	Limit wireLimit `json:"limit"`
}

type wireOrder struct {
	Asset      string        `json:"a"`
	IsBuy      bool          `json:"b"`
	Price      string        `json:"p"`
	Size       string        `json:"s"`
	ReduceOnly bool          `json:"r"`
	Type       wireOrderType `json:"t"`
}

type orderAction struct {
	Type     string      `json:"type"`
	Orders   []wireOrder `json:"orders"`
	Grouping string      `json:"grouping"`
}

type wireCancel struct {
	Asset string `json:"a"`
	OID   uint64 `json:"o"`
}

type cancelAction struct {
	Type    string       `json:"type"`
	Cancels []wireCancel `json:"cancels"`
}

type signedRequest struct {
	Action    json.RawMessage `json:"action"`
	Nonce     int64           `json:"nonce"`
	Signature string          `json:"signature"`
	Account   string          `json:"account"`
}

// statusEntry 应答中的单个订单状态：撤单成功是字符串 "success"，
// 其余是 {"resting":...} / {"filled":...} / {"error":...} 对象。
type statusEntry struct {
	Success bool
	Resting *restingStatus
	Filled  *filledStatus
	Error   string
}

type restingStatus struct {
	OID uint64 `json:"oid"`
}

type filledStatus struct {
	OID     uint64 `json:"oid"`
	TotalSz string `json:"totalSz"`
	AvgPx   string `json:"avgPx"`
}

func (s *statusEntry) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		s.Success = str == "success"
		return nil
	}
	var obj struct {
		Resting *restingStatus `json:"resting"`
		Filled  *filledStatus  `json:"filled"`
		Error   string         `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	s.Resting = obj.Resting
	s.Filled = obj.Filled
	s.Error = obj.Error
	return nil
}

type exchangeResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type okResponse struct {
	Type string `json:"type"`
	Data *struct {
		Statuses []statusEntry `json:"statuses"`
	} `json:"data"`
}

// PlaceLimit 挂一个限价单，把交易所应答归一成 order.PlaceAck。
// 交易所明确返回的业务错误放在 ack.Err 里；传输失败或应答体不完整
// 通过 error 返回。
func (c *ExchangeClient) PlaceLimit(ctx context.Context, req order.PlaceRequest) (order.PlaceAck, error) {
	action := orderAction{
		Type: "order",
		Orders: []wireOrder{{
			Asset:      req.Asset,
			IsBuy:      req.IsBuy,
			Price:      formatFloat(req.Price),
			Size:       formatFloat(req.Size),
			ReduceOnly: req.ReduceOnly,
			Type:       wireOrderType{Limit: wireLimit{TIF: req.TIF}},
		}},
		Grouping: "na",
	}
	statuses, errMsg, err := c.submit(ctx, action)
	if err != nil {
		return order.PlaceAck{}, err
	}
	if errMsg != "" {
		return order.PlaceAck{Err: errMsg}, nil
	}
	st := statuses[0]
	switch {
	case st.Resting != nil:
		return order.PlaceAck{Resting: true, OID: st.Resting.OID}, nil
	case st.Filled != nil:
		return order.PlaceAck{Filled: true, OID: st.Filled.OID}, nil
	case st.Error != "":
		return order.PlaceAck{Err: st.Error}, nil
	}
	return order.PlaceAck{}, fmt.Errorf("%w: unrecognized order status", ErrMalformedResponse)
}

// Cancel 撤掉一个订单，把应答归一成 order.CancelAck。
func (c *ExchangeClient) Cancel(ctx context.Context, asset string, oid uint64) (order.CancelAck, error) {
	action := cancelAction{
		Type:    "cancel",
		Cancels: []wireCancel{{Asset: asset, OID: oid}},
	}
	statuses, errMsg, err := c.submit(ctx, action)
	if err != nil {
		return order.CancelAck{}, err
	}
	if errMsg != "" {
		return order.CancelAck{Err: errMsg}, nil
	}
	st := statuses[0]
	switch {
	case st.Success:
		return order.CancelAck{Success: true}, nil
	case st.Error != "":
		return order.CancelAck{Err: st.Error}, nil
	}
	return order.CancelAck{}, fmt.Errorf("%w: unrecognized cancel status", ErrMalformedResponse)
}

// submit 序列化 action，附上 nonce 与签名后发往 /exchange。
// 返回解析后的状态列表；status 为 err 时返回交易所的错误信息。
func (c *ExchangeClient) submit(ctx context.Context, action interface{}) ([]statusEntry, string, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}
	rawAction, err := json.Marshal(action)
	if err != nil {
		return nil, "", fmt.Errorf("encode action: %w", err)
	}
	nonce := c.now()
	body := signedRequest{
		Action:    rawAction,
		Nonce:     nonce,
		Signature: Sign(rawAction, nonce, c.Secret),
		Account:   c.Account,
	}
	data, err := postJSON(ctx, c.HTTPClient, c.BaseURL+"/exchange", body)
	if err != nil {
		return nil, "", err
	}

	var resp exchangeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrMalformedResponse, data)
	}
	if resp.Status == "err" {
		// err 应答里 response 是一条错误信息字符串
		var msg string
		if err := json.Unmarshal(resp.Response, &msg); err != nil {
			msg = string(resp.Response)
		}
		return nil, msg, nil
	}
	if resp.Status != "ok" {
		return nil, "", fmt.Errorf("%w: status %q", ErrMalformedResponse, resp.Status)
	}
	var ok okResponse
	if err := json.Unmarshal(resp.Response, &ok); err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrMalformedResponse, data)
	}
	if ok.Data == nil || len(ok.Data.Statuses) == 0 {
		return nil, "", fmt.Errorf("%w: empty statuses", ErrMalformedResponse)
	}
	return ok.Data.Statuses, "", nil
}

func (c *ExchangeClient) now() int64 {
	if c.nowMillis != nil {
		return c.nowMillis()
	}
	return time.Now().UnixMilli()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
