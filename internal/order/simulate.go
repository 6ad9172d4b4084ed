package order

import "context"

// Simulate 订单用于纸面推演，不触碰适配器也不改变自身状态。
type Simulate struct {
	base
}

// Process 实现 Order。
func (o *Simulate) Process(_ context.Context) error {
	if err := o.requireAdapter(); err != nil {
		return err
	}
	return nil
}
