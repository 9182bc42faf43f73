package gateway

import (
	"encoding/json"
	"fmt"
)

// ParseMessage 解析一条 WS 推送的外层信封。
func ParseMessage(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("parse ws message: %w", err)
	}
	if msg.Channel == "" {
		return Message{}, fmt.Errorf("ws message without channel: %s", raw)
	}
	return msg, nil
}

// DecodeAllMids 解码 allMids 推送内容。
func DecodeAllMids(msg Message) (AllMidsData, error) {
	var data AllMidsData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return AllMidsData{}, fmt.Errorf("decode allMids: %w", err)
	}
	return data, nil
}

// DecodeUserEvents 解码用户事件推送内容。
func DecodeUserEvents(msg Message) (UserEventsData, error) {
	var data UserEventsData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return UserEventsData{}, fmt.Errorf("decode user events: %w", err)
	}
	return data, nil
}
