package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Sign 对序列化后的 action 负载计算 HMAC-SHA256 签名（hex 编码）。
// 真实交易所的钱包签名由外部网关负责，这里只做会话级鉴权。
func Sign(payload []byte, nonce int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	mac.Write([]byte(strconv.FormatInt(nonce, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
