package state

import "testing"

func TestApproveFromPending(t *testing.T) {
	m := NewExchangeMachine(StatusPending)
	if !m.Can(EventApprove) {
		t.Fatalf("expected approve allowed from pending")
	}
	if err := m.Trigger(EventApprove); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if m.Current() != StatusApproved {
		t.Fatalf("expected status approved, got %s", m.Current())
	}
}

func TestRejectFromPending(t *testing.T) {
	m := NewExchangeMachine(StatusPending)
	if err := m.Trigger(EventReject); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if m.Current() != StatusRejected {
		t.Fatalf("expected status rejected, got %s", m.Current())
	}
}

func TestDecisionIsFinal(t *testing.T) {
	m := NewExchangeMachine(StatusPending)
	if err := m.Trigger(EventApprove); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	// 已决策的交接单不允许再次审批或驳回
	if err := m.Trigger(EventReject); err == nil {
		t.Fatalf("expected reject after approve to fail")
	}
	if err := m.Trigger(EventApprove); err == nil {
		t.Fatalf("expected second approve to fail")
	}
	if m.Current() != StatusApproved {
		t.Fatalf("expected status to stay approved, got %s", m.Current())
	}
}

func TestNoTransitionFromRejected(t *testing.T) {
	m := NewExchangeMachine(StatusRejected)
	if m.Can(EventApprove) || m.Can(EventReject) {
		t.Fatalf("expected no events allowed from rejected")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusApproved, StatusRejected} {
		if !ValidStatus(s) {
			t.Fatalf("expected %s valid", s)
		}
	}
	if ValidStatus("cancelled") {
		t.Fatalf("expected cancelled invalid")
	}
}
