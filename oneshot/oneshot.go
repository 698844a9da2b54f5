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

// Package oneshot implements the one-shot modifier virtual pipeline: a tap
// of the trigger key arms a modifier that applies to exactly the next
// non-modifier key, then clears itself.
package oneshot

import (
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/pipeline"
)

// Handler runs one one-shot modifier behavior: Trigger taps arm Modifier,
// which wraps the next non-modifier key press/release pair.
type Handler struct {
	Trigger  keycode.Code
	Modifier keycode.Code

	armed bool
}

// New constructs a Handler for the given trigger keycode and the modifier
// it arms.
func New(trigger, modifier keycode.Code) *Handler {
	return &Handler{Trigger: trigger, Modifier: modifier}
}

// Reset clears any pending one-shot.
func (h *Handler) Reset() { h.armed = false }

// HandleEvent implements pipeline.Handler. The handler never captures the
// chain: it runs keycode-by-keycode, stateful only in whether a one-shot is
// currently armed.
func (h *Handler) HandleEvent(ev pipeline.Event, info pipeline.Info, actions pipeline.Actions) {
	if ev.Type == pipeline.Timer {
		return
	}

	if ev.Keycode == h.Trigger {
		if ev.Type == pipeline.KeyPress {
			h.armed = true
		}
		// The trigger itself never reaches the host as a literal key.
		actions.Consume()
		return
	}

	if !h.armed {
		return // pass through untouched
	}

	if isModifier(ev.Keycode) {
		// Any other modifier event arriving first clears the one-shot
		// without effect (spec §4.6): fall through unconsumed so the
		// other modifier reaches the host on its own.
		h.armed = false
		return
	}

	switch ev.Type {
	case pipeline.KeyPress:
		actions.EmitTap(h.Modifier, ev.Position)
		actions.EmitTap(ev.Keycode, ev.Position)
	case pipeline.KeyRelease:
		actions.EmitRelease(ev.Keycode)
		actions.EmitRelease(h.Modifier)
		h.armed = false
	}
	// The original event has been replaced by the wrapped emission above;
	// it must not also fall through to the host unwrapped.
	actions.Consume()
}

func isModifier(code keycode.Code) bool {
	switch code {
	case keycode.LeftCtrl, keycode.LeftShift, keycode.LeftAlt, keycode.LeftGui,
		keycode.RightCtrl, keycode.RightShift, keycode.RightAlt, keycode.RightGui:
		return true
	default:
		return false
	}
}
