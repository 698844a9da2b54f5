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

// Package keyreplacer implements the key-sequence replacer virtual
// pipeline: one trigger keycode expands to a stored press sequence on
// press and a stored release sequence on release.
package keyreplacer

import (
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/pipeline"
)

// Behavior pairs a trigger keycode with the sequences it expands to. Press
// and Release are scripted independently -- they need not name the same
// keycodes, and Release fires on the trigger's release regardless of what
// Press emitted.
type Behavior struct {
	Trigger keycode.Code
	Press   []keycode.Code
	Release []keycode.Code
}

// NewBehavior constructs a Behavior for trigger, expanding to press on
// trigger press and release on trigger release.
func NewBehavior(trigger keycode.Code, press, release []keycode.Code) *Behavior {
	return &Behavior{Trigger: trigger, Press: press, Release: release}
}

// Handler runs one Behavior. It is stateless across events: every decision
// is made from the incoming event and the behavior alone.
type Handler struct {
	behavior *Behavior
}

// New constructs a Handler for behavior.
func New(behavior *Behavior) *Handler {
	return &Handler{behavior: behavior}
}

// Reset is a no-op: Handler carries no per-sequence state.
func (h *Handler) Reset() {}

// HandleEvent implements pipeline.Handler. The trigger keycode itself never
// reaches the host; each scripted event is emitted in order and, via the
// executor's normal fallthrough, followed by its own host report (spec
// §4.6, "emits each scripted event in order, then a send_report boundary
// marker").
func (h *Handler) HandleEvent(ev pipeline.Event, info pipeline.Info, actions pipeline.Actions) {
	if ev.Type == pipeline.Timer || ev.Keycode != h.behavior.Trigger {
		return
	}

	switch ev.Type {
	case pipeline.KeyPress:
		for _, code := range h.behavior.Press {
			actions.EmitTap(code, ev.Position)
		}
	case pipeline.KeyRelease:
		for _, code := range h.behavior.Release {
			actions.EmitRelease(code)
		}
	}
	actions.Consume()
}
