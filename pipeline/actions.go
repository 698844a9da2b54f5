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

package pipeline

import "github.com/soycabanillas/monkeyboard/keycode"

// actions is the concrete Actions passed to Handler.HandleEvent for one
// particular invocation. idx is the invoking handler's position in the
// chain, used to stamp emitted events so they re-enter one slot later.
type actions struct {
	exec *Executor
	idx  int
	now  keycode.Timestamp
	pos  keycode.Position

	captured  bool
	timeoutMs uint32
	consumed  bool

	lastEmitPos keycode.Position
}

func (a *actions) EmitTap(code keycode.Code, pos keycode.Position) {
	a.lastEmitPos = pos
	_ = a.exec.buf.AddEvent(code, pos, 0, true, a.now, a.idx)
}

// EmitRelease releases code at the position of the most recent EmitTap
// call from this same invocation (or at the handled event's own position,
// if EmitTap was not called first) -- a release always targets whichever
// position its matching press opened in the only-press buffer.
func (a *actions) EmitRelease(code keycode.Code) {
	_ = a.exec.buf.AddEvent(code, a.lastEmitPos, 0, false, a.now, a.idx)
}

func (a *actions) EmitKey(code keycode.Code, pos keycode.Position) {
	a.EmitTap(code, pos)
	a.EmitRelease(code)
}

func (a *actions) EmitReleaseAt(code keycode.Code, pos keycode.Position) {
	_ = a.exec.buf.AddEvent(code, pos, 0, false, a.now, a.idx)
}

func (a *actions) CaptureNextKeys() {
	a.captured = true
	a.timeoutMs = 0
}

func (a *actions) CaptureNextKeysOrTimeout(ms uint32) {
	a.captured = true
	a.timeoutMs = ms
}

func (a *actions) ActivateLayer(layer keycode.Layer) { a.exec.plat.ActivateLayer(layer) }

func (a *actions) DeactivateLayer(layer keycode.Layer) { a.exec.plat.DeactivateLayer(layer) }

// Consume marks ev as fully handled: it stops passing further down the
// chain and does not fall through to the default host action. Used by a
// handler that intercepts its own trigger keycode (tap-dance, one-shot,
// key replacer) and never wants it to reach the host as a literal key.
func (a *actions) Consume() { a.consumed = true }
