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

// Package testplatform implements an in-memory, deterministic
// platform.Platform driven by a virtual clock instead of real time --
// scenario tests advance it explicitly rather than sleeping, the same way
// a simulated terminal screen feeds synthetic events on demand instead of
// reading a real tty.
package testplatform

import (
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/platform"
	"github.com/soycabanillas/monkeyboard/scheduler"
)

// ReportEvent is one entry in a Platform's recorded host-report trace. Time
// is the virtual clock reading when the call was made, so a scenario test
// can assert both what reached the host and when.
type ReportEvent struct {
	Press bool // false for Unregister, true for Register
	Code  keycode.Code
	Time  keycode.Timestamp
}

// LayerEvent records one ActivateLayer/DeactivateLayer call and when it
// happened on the virtual clock.
type LayerEvent struct {
	Activate bool
	Layer    keycode.Layer
	Time     keycode.Timestamp
}

// Platform is a scriptable platform.Platform: a static keymap, a virtual
// clock advanced by Advance, and a recorded trace of every Register,
// Unregister, and SendReport call for assertions.
type Platform struct {
	keymap map[keycode.Layer]map[keycode.Position]keycode.Code

	now   keycode.Timestamp
	sched *scheduler.Scheduler

	layerStack []keycode.Layer

	Events      []ReportEvent
	LayerEvents []LayerEvent
	Reports     int
}

// New constructs a Platform with the given layer-0 keymap and room for
// scheduler.DefaultCapacity simultaneously deferred callbacks.
func New(layer0 map[keycode.Position]keycode.Code) *Platform {
	p := &Platform{
		keymap:     map[keycode.Layer]map[keycode.Position]keycode.Code{0: layer0},
		sched:      scheduler.New(scheduler.DefaultCapacity),
		layerStack: []keycode.Layer{0},
	}
	return p
}

// SetLayer installs (or replaces) the keymap for layer.
func (p *Platform) SetLayer(layer keycode.Layer, keymap map[keycode.Position]keycode.Code) {
	p.keymap[layer] = keymap
}

// Advance moves the virtual clock forward by ms milliseconds, firing every
// deferred callback that falls due along the way (in the same order the
// real scheduler would).
func (p *Platform) Advance(ms uint32) {
	p.now = p.now.Add(ms)
	p.sched.Tick(p.now)
}

func (p *Platform) Now() keycode.Timestamp { return p.now }

func (p *Platform) Defer(delayMs uint32, fn platform.Callback) platform.Token {
	return p.sched.Defer(p.now, delayMs, fn)
}

func (p *Platform) Cancel(token platform.Token) bool { return p.sched.Cancel(token) }

func (p *Platform) CurrentLayer() keycode.Layer { return p.layerStack[len(p.layerStack)-1] }

func (p *Platform) ActivateLayer(layer keycode.Layer) {
	p.layerStack = append(p.layerStack, layer)
	p.LayerEvents = append(p.LayerEvents, LayerEvent{Activate: true, Layer: layer, Time: p.now})
}

func (p *Platform) DeactivateLayer(layer keycode.Layer) {
	for i := len(p.layerStack) - 1; i >= 0; i-- {
		if p.layerStack[i] == layer {
			p.layerStack = append(p.layerStack[:i], p.layerStack[i+1:]...)
			break
		}
	}
	p.LayerEvents = append(p.LayerEvents, LayerEvent{Activate: false, Layer: layer, Time: p.now})
}

func (p *Platform) KeycodeAt(layer keycode.Layer, pos keycode.Position) keycode.Code {
	if m, ok := p.keymap[layer]; ok {
		if code, ok := m[pos]; ok {
			return code
		}
	}
	return p.keymap[0][pos]
}

func (p *Platform) Register(code keycode.Code) {
	p.Events = append(p.Events, ReportEvent{Press: true, Code: code, Time: p.now})
}

func (p *Platform) Unregister(code keycode.Code) {
	p.Events = append(p.Events, ReportEvent{Press: false, Code: code, Time: p.now})
}

func (p *Platform) SendReport() { p.Reports++ }

// RegisteredCodes returns every code that was Registered, in order,
// ignoring Unregister entries -- convenient for assertions that only care
// about press output.
func (p *Platform) RegisteredCodes() []keycode.Code {
	var out []keycode.Code
	for _, ev := range p.Events {
		if ev.Press {
			out = append(out, ev.Code)
		}
	}
	return out
}
