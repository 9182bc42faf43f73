package gateway

import "encoding/json"

// 行情/用户事件流的订阅类型。
const (
	SubAllMids    = "allMids"
	SubUserEvents = "userEvents"
)

// Subscription 一条订阅请求。UserEvents 订阅需要带账户地址。
type Subscription struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
}

// 推送消息的 channel 取值。
const (
	ChannelAllMids = "allMids"
	ChannelUser    = "user"
	ChannelSubAck  = "subscriptionResponse"
	ChannelPong    = "pong"
)

// Message 多路复用流中的一条推送，channel 字段区分类型，
// data 留给调用方按类型解码。
type Message struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// AllMidsData allMids 推送：资产 -> mid 价字符串。
type AllMidsData struct {
	Mids map[string]string `json:"mids"`
}

// Fill 一笔用户成交。Side 为 "B" 表示买方成交。
type Fill struct {
	Coin string `json:"coin"`
	Side string `json:"side"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	OID  uint64 `json:"oid"`
}

// UserEventsData 用户事件推送，一条消息可能携带多笔成交。
type UserEventsData struct {
	Fills []Fill `json:"fills"`
}

// OpenOrder 启动对账查询返回的挂单。
type OpenOrder struct {
	Coin    string `json:"coin"`
	Side    string `json:"side"`
	Sz      string `json:"sz"`
	LimitPx string `json:"limitPx"`
	OID     uint64 `json:"oid"`
}

// UserState 账户清算所状态中本设计关心的部分。
type UserState struct {
	AssetPositions []AssetPosition `json:"assetPositions"`
}

// AssetPosition 单资产仓位条目。
type AssetPosition struct {
	Position PositionData `json:"position"`
}

// PositionData 仓位明细，szi 为带符号仓位字符串。
type PositionData struct {
	Coin string `json:"coin"`
	Szi  string `json:"szi"`
}
