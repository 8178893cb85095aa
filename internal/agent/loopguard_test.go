package agent

import (
	"encoding/json"
	"testing"

	"github.com/warden-ai/warden/internal/provider"
)

func batch(name, input string) []*provider.ToolCallRequest {
	return []*provider.ToolCallRequest{
		{ID: "t1", Name: name, Input: json.RawMessage(input)},
	}
}

func TestRepeatDetector_WarnsThenStops(t *testing.T) {
	d := &repeatDetector{}
	calls := batch("bash", `{"command":"ls"}`)

	if got := d.check(calls); got != loopNone {
		t.Fatalf("streak 1: got %v, want loopNone", got)
	}
	if got := d.check(calls); got != loopNone {
		t.Fatalf("streak 2: got %v, want loopNone", got)
	}
	if got := d.check(calls); got != loopWarn {
		t.Fatalf("streak 3: got %v, want loopWarn", got)
	}
	if got := d.check(calls); got != loopWarn {
		t.Fatalf("streak 4: got %v, want loopWarn", got)
	}
	if got := d.check(calls); got != loopStop {
		t.Fatalf("streak 5: got %v, want loopStop", got)
	}
}

func TestRepeatDetector_ResetsOnDifferentBatch(t *testing.T) {
	d := &repeatDetector{}
	a := batch("bash", `{"command":"ls"}`)
	b := batch("bash", `{"command":"pwd"}`)

	d.check(a)
	d.check(a)
	if got := d.check(b); got != loopNone {
		t.Fatalf("new batch should reset streak, got %v", got)
	}
	if got := d.check(b); got != loopNone {
		t.Fatalf("streak 2 after reset: got %v, want loopNone", got)
	}
}

func TestBatchSignature_OrderIndependent(t *testing.T) {
	a := []*provider.ToolCallRequest{
		{Name: "grep", Input: json.RawMessage(`{"pattern":"x"}`)},
		{Name: "glob", Input: json.RawMessage(`{"pattern":"*.go"}`)},
	}
	b := []*provider.ToolCallRequest{
		{Name: "glob", Input: json.RawMessage(`{"pattern":"*.go"}`)},
		{Name: "grep", Input: json.RawMessage(`{"pattern":"x"}`)},
	}
	if batchSignature(a) != batchSignature(b) {
		t.Error("signature should not depend on call order")
	}
}

func TestBatchSignature_EmptyBatch(t *testing.T) {
	if batchSignature(nil) != "" {
		t.Error("empty batch should produce empty signature")
	}
}
