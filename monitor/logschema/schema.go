package logschema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

var schemas = map[string]Schema{
	"quote_placed": {
		Event:    "quote_placed",
		Required: []string{"asset", "side", "price", "size", "oid"},
	},
	"quote_rejected_post_only": {
		Event:    "quote_rejected_post_only",
		Required: []string{"asset", "side", "price"},
	},
	"order_cancelled": {
		Event:    "order_cancelled",
		Required: []string{"asset", "oid"},
	},
	"fill": {
		Event:    "fill",
		Required: []string{"asset", "side", "size", "oid"},
	},
	"untracked_fill": {
		Event:    "untracked_fill",
		Required: []string{"asset", "oid"},
	},
	"state_synced": {
		Event:    "state_synced",
		Required: []string{"asset", "position"},
	},
	"feed_disconnect": {
		Event:    "feed_disconnect",
		Required: []string{"error"},
	},
}

// Known 返回所有事件名，便于外部生成文档。
func Known() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate 检查日志字段是否包含 schema 中要求的 key。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ","))
	}
	return nil
}
