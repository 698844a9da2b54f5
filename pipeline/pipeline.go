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

// Package pipeline implements the executor that drives key events through
// an ordered chain of behavior pipelines (tap-dance, combo, one-shot
// modifier, key replacer, ...), turning raw matrix presses and releases
// into host keyboard reports.
package pipeline

import (
	"github.com/soycabanillas/monkeyboard/buffer"
	"github.com/soycabanillas/monkeyboard/keycode"
)

// EventType distinguishes the three kinds of event a Handler can receive.
type EventType int

const (
	// KeyPress is a key-down event, from the matrix or from a pipeline's
	// emit call.
	KeyPress EventType = iota
	// KeyRelease is a key-up event.
	KeyRelease
	// Timer is synthesized when a pipeline's requested deferred timeout
	// fires. It carries no Position/Keycode.
	Timer
)

func (t EventType) String() string {
	switch t {
	case KeyPress:
		return "KeyPress"
	case KeyRelease:
		return "KeyRelease"
	case Timer:
		return "Timer"
	default:
		return "Unknown"
	}
}

// Event is what a Handler's callback receives: either a key transition
// read from the matrix (or emitted by an earlier pipeline), or a timer
// wake for a pipeline that previously captured the chain.
//
// Pipeline is buffer.FromMatrix for an event straight off the key matrix;
// otherwise it is the index of the pipeline that emitted it, so an emitted
// event re-enters the chain one slot after its emitter rather than from
// the top (spec §4.3, "Emitted events re-enter at the next pipeline after
// the emitter").
type Event struct {
	Type     EventType
	Position keycode.Position
	Keycode  keycode.Code
	Layer    keycode.Layer
	Time     keycode.Timestamp
	Pipeline int
}

// Info is the read-only query surface a Handler's callback receives
// alongside the event.
type Info interface {
	// IsPressed reports whether any currently-pressed key resolved to
	// code.
	IsPressed(code keycode.Code) bool
}

// Actions is the side-effect API a Handler's callback receives. Emitting
// and capturing are independent: a callback may emit any number of events
// and still decide whether to keep or release the capture.
type Actions interface {
	// EmitTap appends a press of code at pos to the tail of the event
	// log, attributed to the calling pipeline.
	EmitTap(code keycode.Code, pos keycode.Position)
	// EmitRelease appends a release of code to the tail of the event
	// log, attributed to the calling pipeline.
	EmitRelease(code keycode.Code)
	// EmitKey appends a press immediately followed by a release of code
	// at pos -- a single synthesized keystroke.
	EmitKey(code keycode.Code, pos keycode.Position)
	// EmitReleaseAt appends a release of code at pos explicitly, rather
	// than at the position of the most recent EmitTap call. Used when
	// other emissions from the same invocation (e.g. a replayed
	// interruption) fall between a press and its matching release.
	EmitReleaseAt(code keycode.Code, pos keycode.Position)

	// CaptureNextKeys makes the calling pipeline the exclusive recipient
	// of every subsequent event until it stops renewing capture.
	CaptureNextKeys()
	// CaptureNextKeysOrTimeout is CaptureNextKeys plus a request to be
	// woken with a Timer event after ms milliseconds if no other event
	// arrives first. Calling this again before that replaces both the
	// capture and the pending timer.
	CaptureNextKeysOrTimeout(ms uint32)

	// ActivateLayer and DeactivateLayer push/pop a layer on the
	// platform's layer stack. Used by pipelines whose actions change
	// layout (tap-dance hold actions); physical
	// pipelines are the only ones expected to call these, since layer
	// changes must take effect before later layout lookups.
	ActivateLayer(layer keycode.Layer)
	DeactivateLayer(layer keycode.Layer)

	// Consume marks the event as fully handled: it neither continues to
	// the rest of the chain nor falls through to the default host
	// action. Used by a handler that intercepts its own trigger keycode
	// and never wants it to reach the host as a literal key.
	Consume()
}

// Handler implements one behavior pipeline (tap-dance, combo, one-shot
// modifier, key replacer, ...). HandleEvent is called once per event that
// reaches this handler in chain order, or exclusively when this handler
// currently holds capture. Reset clears all per-handler runtime state back
// to its just-constructed condition.
type Handler interface {
	HandleEvent(ev Event, info Info, actions Actions)
	Reset()
}

// info adapts a *buffer.Buffer to the Info interface.
type bufferInfo struct {
	buf *buffer.Buffer
}

func (i bufferInfo) IsPressed(code keycode.Code) bool { return i.buf.KeycodeIsPressed(code) }
