package order

// Resting 表示对某一侧挂单的本地认知。
// oid 为 0 表示当前认为该侧没有挂单；构造时价格用 -1 占位。
// 该结构从不销毁，只在撤单/成交/重挂时被重置或修改。
type Resting struct {
	OID   uint64
	Size  float64
	Price float64
}

// EmptyResting 返回初始状态的挂单记录。
func EmptyResting() Resting {
	return Resting{OID: 0, Size: 0, Price: -1}
}

// Live 当前是否认为该侧有挂单。
func (r Resting) Live() bool {
	return r.OID != 0
}

// PlaceRequest 发送给交易所的限价单参数。TIF 为 "Alo" 时是 post-only 单。
type PlaceRequest struct {
	Asset      string
	IsBuy      bool
	Price      float64
	Size       float64
	ReduceOnly bool
	TIF        string
}

// PlaceAck 交易所对下单动作的应答，由 gateway 解析成统一结构。
// Resting/Filled/Err 互斥：Err 非空表示交易所返回了错误信息。
type PlaceAck struct {
	Resting bool
	Filled  bool
	OID     uint64
	Err     string
}

// CancelAck 交易所对撤单动作的应答。
type CancelAck struct {
	Success bool
	Err     string
}
