package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hyper-maker-go/infrastructure/logger"
)

const (
	pingInterval = 20 * time.Second
	readDeadline = 60 * time.Second
)

// WSClient 订阅行情与用户事件并把推送写入调用方提供的 channel。
// 断线后自动按指数退避重连并重新订阅。
type WSClient struct {
	URL    string
	Dialer *websocket.Dialer
	log    *logger.Logger

	regs []registration
}

type registration struct {
	sub  Subscription
	sink chan<- Message
}

// NewWSClient 创建流客户端。
func NewWSClient(url string, log *logger.Logger) *WSClient {
	if log == nil {
		log = logger.Nop()
	}
	return &WSClient{
		URL:    url,
		Dialer: websocket.DefaultDialer,
		log:    log,
	}
}

// Subscribe 登记一条订阅。必须在 Run 之前调用完毕。
func (c *WSClient) Subscribe(sub Subscription, sink chan<- Message) error {
	if sub.Type == "" {
		return fmt.Errorf("subscription type required")
	}
	if sub.Type == SubUserEvents && sub.User == "" {
		return fmt.Errorf("userEvents subscription requires user")
	}
	if sink == nil {
		return fmt.Errorf("sink channel required")
	}
	c.regs = append(c.regs, registration{sub: sub, sink: sink})
	return nil
}

// Run 维持连接直到 ctx 取消。每次断开都会记录并退避重连。
func (c *WSClient) Run(ctx context.Context) error {
	if len(c.regs) == 0 {
		return fmt.Errorf("no subscriptions registered")
	}
	backoff := time.Second
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Event("feed_disconnect", map[string]interface{}{"error": err.Error()})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (c *WSClient) runOnce(ctx context.Context) error {
	conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}
	defer conn.Close()

	for _, reg := range c.regs {
		req := map[string]interface{}{
			"method":       "subscribe",
			"subscription": reg.sub,
		}
		if err := conn.WriteJSON(req); err != nil {
			return fmt.Errorf("subscribe %s: %w", reg.sub.Type, err)
		}
	}
	c.log.Info("feed connected", zap.String("url", c.URL), zap.Int("subscriptions", len(c.regs)))

	// 心跳协程：连接关闭或 ctx 取消时随 WriteJSON 失败退出
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteJSON(map[string]string{"method": "ping"}); err != nil {
					return
				}
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := ParseMessage(raw)
		if err != nil {
			c.log.Warn("discarding unparseable feed message", zap.Error(err))
			continue
		}
		switch msg.Channel {
		case ChannelSubAck:
			c.log.Debug("subscription acknowledged", zap.ByteString("data", msg.Data))
		case ChannelPong:
			// 心跳应答，无需处理
		default:
			if err := c.dispatch(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// dispatch 把消息投递给订阅方。未知 channel 投递给所有 sink，
// 由消费方决定如何记录。投递是阻塞的，保证事件顺序。
func (c *WSClient) dispatch(ctx context.Context, msg Message) error {
	delivered := make(map[chan<- Message]bool)
	for _, reg := range c.regs {
		if delivered[reg.sink] {
			continue
		}
		if ch := channelFor(reg.sub.Type); ch != "" && ch != msg.Channel && known(msg.Channel) {
			continue
		}
		delivered[reg.sink] = true
		select {
		case reg.sink <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// channelFor 订阅类型对应的推送 channel。
func channelFor(subType string) string {
	switch subType {
	case SubAllMids:
		return ChannelAllMids
	case SubUserEvents:
		return ChannelUser
	}
	return ""
}

func known(channel string) bool {
	return channel == ChannelAllMids || channel == ChannelUser
}
