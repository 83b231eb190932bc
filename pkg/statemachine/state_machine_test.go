// Copyright 2025 Tenantry Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statemachine

import (
	"errors"
	"testing"
)

// 定义测试用状态
type InvoiceStatus string

const (
	InvoiceDraft    InvoiceStatus = "DRAFT"
	InvoiceIssued   InvoiceStatus = "ISSUED"
	InvoicePaid     InvoiceStatus = "PAID"
	InvoiceVoided   InvoiceStatus = "VOIDED"
	InvoiceRefunded InvoiceStatus = "REFUNDED"
)

func TestStateMachine_Basic(t *testing.T) {
	sm := NewWithState(InvoiceDraft)

	sm.Allow(InvoiceDraft, InvoiceIssued, InvoiceVoided).
		Allow(InvoiceIssued, InvoicePaid, InvoiceVoided).
		Allow(InvoicePaid, InvoiceRefunded)

	if sm.Current() != InvoiceDraft {
		t.Errorf("expected current state to be %v, got %v", InvoiceDraft, sm.Current())
	}

	if sm.Initial() != InvoiceDraft {
		t.Errorf("expected initial state to be %v, got %v", InvoiceDraft, sm.Initial())
	}

	// 合法转移
	if err := sm.TransitTo(InvoiceIssued); err != nil {
		t.Errorf("expected transition to succeed, got error: %v", err)
	}

	if sm.Current() != InvoiceIssued {
		t.Errorf("expected current state to be %v, got %v", InvoiceIssued, sm.Current())
	}

	// 非法转移
	if err := sm.TransitTo(InvoiceRefunded); err == nil {
		t.Error("expected transition to fail, but it succeeded")
	}
}

func TestStateMachine_CanTransit(t *testing.T) {
	sm := NewWithState(InvoiceDraft)
	sm.Allow(InvoiceDraft, InvoiceIssued, InvoiceVoided)

	if !sm.CanTransitTo(InvoiceIssued) {
		t.Error("expected to be able to transit to ISSUED")
	}

	if sm.CanTransitTo(InvoicePaid) {
		t.Error("expected NOT to be able to transit to PAID")
	}

	if !sm.CanTransition(InvoiceDraft, InvoiceVoided) {
		t.Error("expected DRAFT -> VOIDED to be valid")
	}
}

func TestStateMachine_Hooks(t *testing.T) {
	sm := NewWithState(InvoiceDraft)
	sm.Allow(InvoiceDraft, InvoiceIssued)

	// 记录钩子执行顺序
	var executionOrder []string

	sm.OnExit(InvoiceDraft, func(state InvoiceStatus) error {
		executionOrder = append(executionOrder, "exit:draft")
		return nil
	})
	sm.OnTransition(func(from, to InvoiceStatus) error {
		executionOrder = append(executionOrder, "transition")
		return nil
	})
	sm.OnEnter(InvoiceIssued, func(state InvoiceStatus) error {
		executionOrder = append(executionOrder, "enter:issued")
		return nil
	})

	if err := sm.TransitTo(InvoiceIssued); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	expected := []string{"exit:draft", "transition", "enter:issued"}
	if len(executionOrder) != len(expected) {
		t.Fatalf("expected %d hook calls, got %d", len(expected), len(executionOrder))
	}
	for i, step := range expected {
		if executionOrder[i] != step {
			t.Errorf("expected hook %d to be %s, got %s", i, step, executionOrder[i])
		}
	}
}

func TestStateMachine_Validator(t *testing.T) {
	sm := NewWithState(InvoiceDraft)
	sm.Allow(InvoiceDraft, InvoiceIssued)

	sm.AddValidator(func(from, to InvoiceStatus) error {
		if to == InvoiceIssued {
			return errors.New("issuing is blocked")
		}
		return nil
	})

	if err := sm.TransitTo(InvoiceIssued); err == nil {
		t.Error("expected validator to reject the transition")
	}

	if sm.Current() != InvoiceDraft {
		t.Errorf("state should not change on rejected transition, got %v", sm.Current())
	}
}

func TestStateMachine_History(t *testing.T) {
	sm := NewWithState(InvoiceDraft)
	sm.Allow(InvoiceDraft, InvoiceIssued).
		Allow(InvoiceIssued, InvoicePaid)

	_ = sm.TransitTo(InvoiceIssued)
	_ = sm.TransitTo(InvoicePaid)
	_ = sm.TransitTo(InvoiceDraft) // 非法，也会被记录

	history := sm.History()
	if len(history) != 3 {
		t.Fatalf("expected 3 history records, got %d", len(history))
	}
	if history[0].From != InvoiceDraft || history[0].To != InvoiceIssued {
		t.Errorf("unexpected first record: %+v", history[0])
	}
	if history[2].Error == nil {
		t.Error("expected the invalid transition to be recorded with an error")
	}
}
