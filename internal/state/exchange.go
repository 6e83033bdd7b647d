package state

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// 交接单状态常量
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// 事件常量
const (
	EventApprove = "approve"
	EventReject  = "reject"
)

// ValidStatus 判断是否为合法的交接单状态
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// ExchangeMachine 交接单状态机
// 仅允许 pending -> approved 和 pending -> rejected，两者都只能发生一次
type ExchangeMachine struct {
	fsm *fsm.FSM
}

// NewExchangeMachine 以当前状态创建状态机
func NewExchangeMachine(current string) *ExchangeMachine {
	if !ValidStatus(current) {
		current = StatusPending
	}

	return &ExchangeMachine{
		fsm: fsm.NewFSM(
			current,
			fsm.Events{
				{Name: EventApprove, Src: []string{StatusPending}, Dst: StatusApproved},
				{Name: EventReject, Src: []string{StatusPending}, Dst: StatusRejected},
			},
			fsm.Callbacks{},
		),
	}
}

// Current 获取当前状态
func (m *ExchangeMachine) Current() string {
	return m.fsm.Current()
}

// Can 检查事件是否可以触发
func (m *ExchangeMachine) Can(event string) bool {
	return m.fsm.Can(event)
}

// Trigger 触发事件，非法转换返回错误
func (m *ExchangeMachine) Trigger(event string) error {
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	return nil
}
