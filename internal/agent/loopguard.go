package agent

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/warden-ai/warden/internal/provider"
)

const (
	repeatWarnThreshold = 3
	repeatStopThreshold = 5
)

type loopAction int

const (
	loopNone loopAction = iota
	loopWarn
	loopStop
)

// repeatDetector tracks consecutive identical tool-call batches so the loop
// can warn the model and eventually bail out instead of spinning forever.
type repeatDetector struct {
	lastSig string
	streak  int
}

func (d *repeatDetector) check(calls []*provider.ToolCallRequest) loopAction {
	sig := batchSignature(calls)
	if sig == "" {
		d.lastSig = ""
		d.streak = 0
		return loopNone
	}

	if sig == d.lastSig {
		d.streak++
	} else {
		d.lastSig = sig
		d.streak = 1
	}

	switch {
	case d.streak >= repeatStopThreshold:
		return loopStop
	case d.streak >= repeatWarnThreshold:
		return loopWarn
	default:
		return loopNone
	}
}

// batchSignature hashes a tool-call batch, order-independent.
func batchSignature(calls []*provider.ToolCallRequest) string {
	if len(calls) == 0 {
		return ""
	}
	parts := make([]string, len(calls))
	for i, c := range calls {
		parts[i] = c.Name + ":" + string(c.Input)
	}
	sort.Strings(parts)
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", h)
}
