package events

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// OrderCompleted 是订单完成事件，每个订单记录一次共购。
//
//	{"order_id": "A1001", "product_ids": [3, 7, 12]}
type OrderCompleted struct {
	OrderID    string  `json:"order_id"`
	ProductIDs []int64 `json:"product_ids"`
}

var (
	errNoOrderID  = errors.New("order_id is required")
	errNoProducts = errors.New("product_ids is empty")
)

// Validate 检查事件是否可记录。
func (o *OrderCompleted) Validate() error {
	if o.OrderID == "" {
		return errNoOrderID
	}
	if len(o.ProductIDs) == 0 {
		return errNoProducts
	}
	return nil
}

// Marshal 校验并序列化事件。
func Marshal(o *OrderCompleted) ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("validate order: %w", err)
	}
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	return data, nil
}

// Unmarshal 反序列化并校验事件。
func Unmarshal(data []byte) (*OrderCompleted, error) {
	var o OrderCompleted
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("validate order: %w", err)
	}
	return &o, nil
}
