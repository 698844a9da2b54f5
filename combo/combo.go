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

package combo

import "github.com/soycabanillas/monkeyboard/pipeline"

// state is one position in the combo state machine (spec §4.5).
type state int

const (
	idle state = iota
	waitingForKeys
	waitingForConfirmation
	active
)

// Handler runs one Behavior's state machine, following
// DiscardWhenOnePressedInCommon: while a candidate accumulates, its
// members' presses are withheld from later pipelines; on success they are
// discarded, on failure they are replayed in original order.
type Handler struct {
	behavior *Behavior

	state state

	// down[i] is whether Members[i] has been observed pressed during the
	// current candidate or activation.
	down []bool

	// withheld records each member press event in arrival order, so a
	// failed candidate can replay them exactly as they were seen.
	withheld []pipeline.Event
}

// New constructs a Handler for behavior.
func New(behavior *Behavior) *Handler {
	return &Handler{behavior: behavior, state: idle, down: make([]bool, len(behavior.Members))}
}

// Reset returns the handler to its just-constructed condition.
func (h *Handler) Reset() {
	h.state = idle
	for i := range h.down {
		h.down[i] = false
	}
	h.withheld = h.withheld[:0]
}

// HandleEvent implements pipeline.Handler.
func (h *Handler) HandleEvent(ev pipeline.Event, info pipeline.Info, actions pipeline.Actions) {
	memberIdx := -1
	if ev.Type != pipeline.Timer {
		memberIdx = h.behavior.indexOf(ev.Position)
	}

	switch h.state {
	case idle:
		if memberIdx >= 0 && ev.Type == pipeline.KeyPress {
			h.down[memberIdx] = true
			h.withheld = append(h.withheld[:0], ev)
			h.state = waitingForKeys
			actions.CaptureNextKeysOrTimeout(h.behavior.WindowMs)
			h.maybeAdvanceToConfirmation(actions)
		}

	case waitingForKeys:
		if ev.Type == pipeline.Timer {
			h.fail(actions)
			return
		}
		if memberIdx < 0 && ev.Type == pipeline.KeyPress {
			// Wrong key: this candidate is not the combo after all.
			h.fail(actions)
			h.forward(ev, actions)
			return
		}
		if memberIdx < 0 {
			h.forward(ev, actions)
			actions.CaptureNextKeysOrTimeout(h.behavior.WindowMs)
			return
		}
		if ev.Type == pipeline.KeyRelease {
			// A member let go before the candidate completed: fail,
			// then let this release itself pass through too.
			h.fail(actions)
			h.forward(ev, actions)
			return
		}
		if !h.down[memberIdx] {
			h.down[memberIdx] = true
			h.withheld = append(h.withheld, ev)
		}
		actions.CaptureNextKeysOrTimeout(h.behavior.WindowMs)
		h.maybeAdvanceToConfirmation(actions)

	case waitingForConfirmation:
		if ev.Type == pipeline.Timer {
			h.commitActive(actions)
			return
		}
		if memberIdx < 0 && ev.Type == pipeline.KeyPress {
			h.fail(actions)
			h.forward(ev, actions)
			return
		}
		if memberIdx < 0 {
			h.forward(ev, actions)
			actions.CaptureNextKeysOrTimeout(h.behavior.WindowMs)
			return
		}
		if ev.Type == pipeline.KeyRelease {
			h.fail(actions)
			h.forward(ev, actions)
			return
		}
		// A duplicate press of an already-down member cannot happen on
		// real hardware; ignore defensively and keep waiting.
		actions.CaptureNextKeysOrTimeout(h.behavior.WindowMs)

	case active:
		if memberIdx < 0 {
			return // not captured in this state; passes through on its own
		}
		if ev.Type == pipeline.KeyPress {
			// Member presses after activation are swallowed.
			actions.Consume()
			return
		}
		h.handleReleaseWhileActive(memberIdx, actions)
		actions.Consume()
	}
}

// maybeAdvanceToConfirmation transitions to WaitingForConfirmation once
// every member is observed down, arming the activation window from now.
func (h *Handler) maybeAdvanceToConfirmation(actions pipeline.Actions) {
	for _, d := range h.down {
		if !d {
			return
		}
	}
	h.state = waitingForConfirmation
	actions.CaptureNextKeysOrTimeout(h.behavior.WindowMs)
}

// fail replays every withheld member press, in original order, to the rest
// of the chain, then returns to Idle. Capture is released implicitly: the
// caller stops requesting it once this handler's HandleEvent returns
// without calling CaptureNextKeys again.
func (h *Handler) fail(actions pipeline.Actions) {
	for _, ev := range h.withheld {
		h.forward(ev, actions)
	}
	h.resetToIdle()
}

// commitActive applies the combo's press translation and transitions to
// Active, discarding the withheld member presses.
func (h *Handler) commitActive(actions pipeline.Actions) {
	switch h.behavior.Action.Kind {
	case RegisterKeycode:
		actions.EmitTap(h.behavior.Action.Keycode, h.withheld[0].Position)
	case SendSequence:
		for _, code := range h.behavior.Action.Sequence {
			actions.EmitKey(code, h.withheld[0].Position)
		}
	}
	h.withheld = h.withheld[:0]
	h.state = active
	// Active does not hold capture: member releases are matched by
	// position directly, and non-member events were never withheld.
}

// handleReleaseWhileActive applies the release translation on the first
// member release observed, then swallows every subsequent member release
// until all members are back up, returning to Idle.
func (h *Handler) handleReleaseWhileActive(memberIdx int, actions pipeline.Actions) {
	// Every member's down flag is still true on entry to Active (commit
	// only sets state, never clears them), so "all still true" means
	// none has been released in this activation episode yet.
	isFirstRelease := true
	for _, d := range h.down {
		if !d {
			isFirstRelease = false
			break
		}
	}
	if isFirstRelease && h.behavior.Action.Kind == RegisterKeycode {
		actions.EmitRelease(h.behavior.Action.Keycode)
	}
	h.down[memberIdx] = false

	for _, d := range h.down {
		if d {
			return // other members still held
		}
	}
	h.resetToIdle()
}

func (h *Handler) resetToIdle() {
	h.state = idle
	for i := range h.down {
		h.down[i] = false
	}
	h.withheld = h.withheld[:0]
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
