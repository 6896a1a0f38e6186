package notify

import (
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ParseToMessage 將Event序列化成Redis Stream的訊息欄位
// 先用msgpack編碼再以base64包裝，跟資料庫同步訊息用同一套格式
func ParseToMessage(event Event) (map[string]any, error) {
	bytes, err := msgpack.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}
	return map[string]any{
		"data": base64.StdEncoding.EncodeToString(bytes),
	}, nil
}

// ParseFromMessage 將Redis Stream的訊息欄位還原成Event
func ParseFromMessage(message map[string]any) (Event, error) {
	var event Event

	dataStr, ok := message["data"].(string)
	if !ok {
		return event, fmt.Errorf("data field not found or invalid type")
	}

	bytes, err := base64.StdEncoding.DecodeString(dataStr)
	if err != nil {
		return event, fmt.Errorf("base64 decode error: %w", err)
	}

	if err := msgpack.Unmarshal(bytes, &event); err != nil {
		return event, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return event, nil
}
