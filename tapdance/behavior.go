// Copyright 2025 The Monkeyboard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tapdance implements the per-key tap-dance state machine: the
// same physical key produces different output depending on how many times
// it is tapped and whether it is held.
package tapdance

import "github.com/soycabanillas/monkeyboard/keycode"

// HoldStrategy controls what happens when a non-trigger event arrives
// while a hold decision is pending.
type HoldStrategy int

const (
	// TapPreferred ignores interruptions; only the hold timeout commits
	// the hold. The interrupting event is withheld and replayed unchanged
	// once the sequence resolves to a tap or a hold.
	TapPreferred HoldStrategy = iota
	// Balanced commits the hold only once a full press-then-release
	// cycle of the interrupting key completes while the trigger is
	// still held; releasing the trigger first commits a tap instead.
	Balanced
	// HoldPreferred commits the hold immediately on the first
	// interrupting press, which is then forwarded with the keycode it
	// resolved to before the hold activated its layer; it is not looked
	// up again under the activated layer.
	HoldPreferred
)

// TapAction is what to emit when a sequence resolves to a tap at some
// count.
type TapAction struct {
	Keycode keycode.Code
}

// HoldAction is what to activate when a sequence resolves to a hold at
// some count.
type HoldAction struct {
	Layer    keycode.Layer
	Strategy HoldStrategy
}

// Behavior is one tap-dance configuration: a trigger keycode (built with
// keycode.TapDance), timeouts, and a sparse, 1-based table of tap/hold
// actions per tap count. Immutable once built.
type Behavior struct {
	Index         uint8
	HoldTimeoutMs uint32
	TapTimeoutMs  uint32

	// tap[n] and hold[n] hold the action configured for tap count n+1;
	// a nil entry means nothing is configured at that count. Gaps are
	// allowed (spec §3, "gaps and sparsity are allowed").
	tap  []*TapAction
	hold []*HoldAction
}

// NewBehavior constructs an empty Behavior for the tap-dance trigger at
// index, with the given hold and tap timeouts.
func NewBehavior(index uint8, holdTimeoutMs, tapTimeoutMs uint32) *Behavior {
	return &Behavior{Index: index, HoldTimeoutMs: holdTimeoutMs, TapTimeoutMs: tapTimeoutMs}
}

// Keycode returns the keycode that triggers this behavior.
func (b *Behavior) Keycode() keycode.Code { return keycode.TapDance(b.Index) }

// SetTap configures the tap action at the given 1-based count.
func (b *Behavior) SetTap(count int, action TapAction) *Behavior {
	b.growTap(count)
	b.tap[count-1] = &action
	return b
}

// SetHold configures the hold action at the given 1-based count.
func (b *Behavior) SetHold(count int, action HoldAction) *Behavior {
	b.growHold(count)
	b.hold[count-1] = &action
	return b
}

func (b *Behavior) growTap(count int) {
	for len(b.tap) < count {
		b.tap = append(b.tap, nil)
	}
}

func (b *Behavior) growHold(count int) {
	for len(b.hold) < count {
		b.hold = append(b.hold, nil)
	}
}

// holdAt returns the hold action configured at exactly this count, or nil
// if none -- including when count exceeds every configured hold, which is
// the "hold never overflows" rule (spec §9): a hold beyond the highest
// configured index degrades to the tap path rather than reusing a lower
// hold.
func (b *Behavior) holdAt(count int) *HoldAction {
	if count < 1 || count > len(b.hold) {
		return nil
	}
	return b.hold[count-1]
}

// tapAt returns the tap action configured at exactly this count, or nil if
// none (used while still deciding whether to wait for another tap).
func (b *Behavior) tapAt(count int) *TapAction {
	if count < 1 || count > len(b.tap) {
		return nil
	}
	return b.tap[count-1]
}

// hasActionsAbove reports whether any hold or tap action is configured at
// a count strictly greater than count, meaning the sequence must keep
// waiting rather than resolve now.
func (b *Behavior) hasActionsAbove(count int) bool {
	for i := count; i < len(b.tap); i++ {
		if b.tap[i] != nil {
			return true
		}
	}
	for i := count; i < len(b.hold); i++ {
		if b.hold[i] != nil {
			return true
		}
	}
	return false
}

// resolveTap returns the tap action to emit when a sequence resolves at
// count taps with no hold committed: the exact action at count if
// configured, else the highest configured tap action at a lower count
// (tap-count overflow, spec §3), else nil if no tap action exists at all.
func (b *Behavior) resolveTap(count int) *TapAction {
	if count > len(b.tap) {
		count = len(b.tap)
	}
	for i := count; i >= 1; i-- {
		if t := b.tapAt(i); t != nil {
			return t
		}
	}
	return nil
}
