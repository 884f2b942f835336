// Package conv 把 YAML/JSON 解析出的 map[string]any 配置转换为强类型值。
// yaml.v3 把整数解析为 int，encoding/json 解析为 float64，这里统一兼容。
package conv

import (
	"strconv"
	"time"
)

// ToFloat64 将数值类型的 any 转为 float64。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

// ToInt64 将数值或数字字符串转为 int64；带小数的浮点数视为无效。
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case float64:
		if val != float64(int64(val)) {
			return 0, false
		}
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// ConvertSlice 将 []T 按 convert 转为 []U，convert 返回 false 的元素被跳过。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// SliceAnyToInt64 将 []any 转为 []int64，无法转换的元素被跳过。
func SliceAnyToInt64(v any) []int64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	return ConvertSlice(raw, ToInt64)
}

// SliceAnyToString 将 []any 转为 []string，仅保留字符串元素。
func SliceAnyToString(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	return ConvertSlice(raw, func(e any) (string, bool) {
		s, ok := e.(string)
		return s, ok
	})
}

// ConfigGet 从 config 按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 从 config 取 int64，兼容 int 与 float64。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	if n, ok := ToInt64(m[key]); ok {
		return n
	}
	return defaultVal
}

// ConfigGetDuration 从 config 取时长。字符串按 time.ParseDuration 解析（"200ms"），
// 数字按秒处理。
func ConfigGetDuration(m map[string]any, key string, defaultVal time.Duration) time.Duration {
	switch val := m[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int, int64, float64:
		if f, ok := ToFloat64(val); ok {
			return time.Duration(f * float64(time.Second))
		}
	}
	return defaultVal
}
