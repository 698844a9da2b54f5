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

package tapdance

import (
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/pipeline"
)

// state is one position in the tap-dance state machine (spec §4.4).
type state int

const (
	idle state = iota
	waitingForHold
	waitingForTap
	holding
	waitingForRelease
)

// Handler runs one Behavior's state machine. Configure one Handler per
// tap-dance key and add each to the physical chain -- a single status
// object per trigger matches "one status object tracks an active sequence
// on its trigger key" (spec §3).
type Handler struct {
	behavior *Behavior

	state      state
	tapCount   int
	triggerPos keycode.Position
	startLayer keycode.Layer
	holdLayer  keycode.Layer

	// holdDeadline is the absolute time the current hold decision commits
	// by, set once when WaitingForHold begins. Re-arming capture on an
	// interruption must request the time remaining until this deadline,
	// not a fresh full HoldTimeoutMs, or a steady stream of interruptions
	// would keep pushing the deadline out indefinitely.
	holdDeadline keycode.Timestamp

	// interrupting holds the position of an in-progress press from a
	// different key, observed while waiting for a hold decision under
	// the Balanced strategy -- only that key's matching release can
	// commit the hold.
	interrupting    bool
	interruptingPos keycode.Position

	// withheld holds interrupting events observed under TapPreferred,
	// which never resolve the decision themselves: they are replayed in
	// order once the sequence finally resolves (to a tap or to a
	// committed hold), rather than forwarded at their own original time.
	withheld []pipeline.Event
}

// New constructs a Handler for behavior.
func New(behavior *Behavior) *Handler {
	return &Handler{behavior: behavior, state: idle}
}

// Reset returns the handler to its just-constructed, never-used condition
// (spec §4.4, "An Idle sequence must be indistinguishable from a
// never-used one").
func (h *Handler) Reset() {
	h.state = idle
	h.tapCount = 0
	h.interrupting = false
	h.withheld = h.withheld[:0]
}

// HandleEvent implements pipeline.Handler.
func (h *Handler) HandleEvent(ev pipeline.Event, info pipeline.Info, actions pipeline.Actions) {
	isTrigger := ev.Type != pipeline.Timer && ev.Keycode == h.behavior.Keycode() && ev.Position == h.triggerPos

	switch h.state {
	case idle:
		if ev.Type == pipeline.KeyPress && ev.Keycode == h.behavior.Keycode() {
			h.triggerPos = ev.Position
			h.startLayer = ev.Layer
			h.tapCount = 1
			actions.Consume()
			h.beginCount(ev, actions)
		}

	case waitingForHold:
		if ev.Type == pipeline.Timer {
			h.commitHold(ev, actions)
			return
		}
		if isTrigger && ev.Type == pipeline.KeyRelease {
			actions.Consume()
			if !h.behavior.hasActionsAbove(h.tapCount) {
				// Nothing configured at a higher count: no point waiting
				// out the tap timeout just to reach the same conclusion.
				h.resolve(ev, actions, h.tapCount)
				return
			}
			h.state = waitingForTap
			h.armTapTimeout(ev, actions)
			return
		}
		h.applyInterruption(ev, actions)

	case waitingForTap:
		if ev.Type == pipeline.Timer {
			h.resolve(ev, actions, h.tapCount)
			return
		}
		if isTrigger && ev.Type == pipeline.KeyPress {
			actions.Consume()
			h.tapCount++
			h.beginCount(ev, actions)
			return
		}
		// O-P/O-R: unaffected, but capture is held exclusively --
		// forward the event to whoever is next in the chain and keep
		// waiting for our own timeout.
		h.forward(ev, actions)
		h.armTapTimeout(ev, actions)

	case waitingForRelease:
		if isTrigger && ev.Type == pipeline.KeyRelease {
			actions.Consume()
			h.state = waitingForTap
			h.armTapTimeout(ev, actions)
			return
		}
		// not captured in this state; other events pass through on
		// their own.

	case holding:
		if isTrigger && ev.Type == pipeline.KeyRelease {
			actions.Consume()
			actions.DeactivateLayer(h.holdLayer)
			h.state = idle
			h.tapCount = 0
		}
		// not captured; any other event passes through on its own.
	}
}

// beginCount evaluates the configuration at the current tap count and
// either commits to waiting (capturing the chain while a hold decision is
// pending, uncaptured while waiting for the release) or, if the outcome is
// already determined, emits immediately and resets (spec §4.4, "Immediate
// vs. deferred emission").
func (h *Handler) beginCount(ev pipeline.Event, actions pipeline.Actions) {
	if hold := h.behavior.holdAt(h.tapCount); hold != nil {
		h.state = waitingForHold
		h.holdDeadline = ev.Time.Add(h.behavior.HoldTimeoutMs)
		actions.CaptureNextKeysOrTimeout(h.behavior.HoldTimeoutMs)
		return
	}

	if h.behavior.hasActionsAbove(h.tapCount) {
		h.state = waitingForRelease
		return
	}

	// Determined: nothing configured above this count, and no hold at
	// this count. Resolve now, at the original event's own timestamp.
	h.resolve(ev, actions, h.tapCount)
}

func (h *Handler) armTapTimeout(ev pipeline.Event, actions pipeline.Actions) {
	actions.CaptureNextKeysOrTimeout(h.behavior.TapTimeoutMs)
}

// resolve emits the tap action configured at (or below, via overflow
// fallback) count, replays any events withheld under TapPreferred between
// the tap's press and release, then returns the sequence to Idle.
func (h *Handler) resolve(ev pipeline.Event, actions pipeline.Actions, count int) {
	tap := h.behavior.resolveTap(count)
	if tap != nil {
		actions.EmitTap(tap.Keycode, h.triggerPos)
	}
	h.replayWithheld(actions)
	if tap != nil {
		actions.EmitReleaseAt(tap.Keycode, h.triggerPos)
	}
	h.state = idle
	h.tapCount = 0
	h.interrupting = false
}

// commitHold activates the configured hold action's layer, replays any
// events withheld under TapPreferred while the decision was pending, and
// transitions to Holding, releasing capture (spec §4.4, "T → Holding,
// activate hold action's layer, release capture").
func (h *Handler) commitHold(ev pipeline.Event, actions pipeline.Actions) {
	hold := h.behavior.holdAt(h.tapCount)
	if hold != nil {
		h.holdLayer = hold.Layer
		actions.ActivateLayer(hold.Layer)
	}
	h.replayWithheld(actions)
	h.state = holding
	h.interrupting = false
	// Deliberately do not renew capture: Holding runs uncaptured.
}

// replayWithheld forwards every event withheld under TapPreferred, in
// original arrival order, then clears the backlog.
func (h *Handler) replayWithheld(actions pipeline.Actions) {
	for _, ev := range h.withheld {
		h.forward(ev, actions)
	}
	h.withheld = h.withheld[:0]
}

// remainingHoldMs returns the time left until holdDeadline as observed at
// now, clamped to 0 once the deadline has passed. Used to re-arm capture on
// an interruption without sliding the hold deadline forward.
func (h *Handler) remainingHoldMs(now keycode.Timestamp) uint32 {
	if !h.holdDeadline.After(now) {
		return 0
	}
	return h.holdDeadline.Since(now)
}

// applyInterruption handles a non-trigger event received in WaitingForHold,
// per the behavior's configured hold-interruption strategy.
func (h *Handler) applyInterruption(ev pipeline.Event, actions pipeline.Actions) {
	hold := h.behavior.holdAt(h.tapCount)
	strategy := TapPreferred
	if hold != nil {
		strategy = hold.Strategy
	}

	switch strategy {
	case TapPreferred:
		// Ignore entirely: withhold the interrupting event rather than
		// forwarding it now, since the hold decision (and therefore this
		// sequence's own resolution time) is still pending. It is
		// replayed once resolve or commitHold finally runs.
		h.withheld = append(h.withheld, ev)
		actions.CaptureNextKeysOrTimeout(h.remainingHoldMs(ev.Time))

	case Balanced:
		if !h.interrupting {
			if ev.Type == pipeline.KeyPress {
				h.interrupting = true
				h.interruptingPos = ev.Position
			}
			h.forward(ev, actions)
			actions.CaptureNextKeysOrTimeout(h.remainingHoldMs(ev.Time))
			return
		}
		if ev.Type == pipeline.KeyRelease && ev.Position == h.interruptingPos {
			h.forward(ev, actions)
			h.commitHold(ev, actions)
			return
		}
		h.forward(ev, actions)
		actions.CaptureNextKeysOrTimeout(h.remainingHoldMs(ev.Time))

	case HoldPreferred:
		if ev.Type == pipeline.KeyPress {
			h.commitHold(ev, actions)
			h.forward(ev, actions)
			return
		}
		h.forward(ev, actions)
		actions.CaptureNextKeysOrTimeout(h.remainingHoldMs(ev.Time))
	}
}

// forward re-injects ev verbatim so a pipeline later in the chain sees it,
// since this handler currently owns the entire event stream via capture.
func (h *Handler) forward(ev pipeline.Event, actions pipeline.Actions) {
	if ev.Type == pipeline.KeyPress {
		actions.EmitTap(ev.Keycode, ev.Position)
	} else if ev.Type == pipeline.KeyRelease {
		actions.EmitRelease(ev.Keycode)
	}
}
