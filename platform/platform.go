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

// Package platform declares the small set of capabilities the pipeline
// core requires from its host firmware (timer, keymap lookup, deferred
// callbacks, host report transport). The core never depends on a concrete
// layout storage strategy, USB/BLE stack, or matrix scanner -- it consumes
// exactly this interface, the way tcell's Screen interface lets the rest of
// the library stay independent of any one terminal driver.
package platform

import "github.com/soycabanillas/monkeyboard/keycode"

// Token identifies a scheduled deferred callback so it can later be
// canceled. The zero Token is reserved and never returned by Defer for a
// successfully scheduled callback.
type Token uint16

// InvalidToken is returned by Defer when no callback slot is available
// (§7 SchedulerFull). Pipelines that receive it must degrade gracefully,
// typically by resolving immediately instead of capturing.
const InvalidToken Token = 0

// Callback is invoked when a deferred timeout fires. It carries no
// arguments; the pipeline that scheduled it closes over whatever context it
// needs.
type Callback func()

// Clock provides monotonic time and one-shot deferred execution. A
// firmware's timer hardware plus its housekeeping task loop are expected to
// back this.
type Clock interface {
	// Now returns the current monotonic time in milliseconds.
	Now() keycode.Timestamp

	// Defer schedules fn to run after delayMs milliseconds, returning a
	// token that can cancel it. Returns InvalidToken if no slot is
	// available.
	Defer(delayMs uint32, fn Callback) Token

	// Cancel cancels a previously scheduled callback. Returns false if
	// the token is invalid, already fired, or already canceled.
	Cancel(token Token) bool
}

// Layout resolves keycodes from the keymap and manages the active layer
// stack. Activating a layer shadows lower-numbered layers for subsequent
// lookups.
type Layout interface {
	// CurrentLayer returns the topmost active layer.
	CurrentLayer() keycode.Layer

	// ActivateLayer pushes a layer onto the active stack.
	ActivateLayer(layer keycode.Layer)

	// DeactivateLayer removes the most recently activated occurrence of
	// layer from the stack, whether or not it is on top.
	DeactivateLayer(layer keycode.Layer)

	// KeycodeAt resolves the keycode bound to pos on the given layer.
	KeycodeAt(layer keycode.Layer, pos keycode.Position) keycode.Code
}

// HostReport is the host-facing output boundary. Only the executor's
// default host action at the end of the chain calls it; pipelines never
// touch host output directly (spec §4.1).
type HostReport interface {
	// Register marks code as currently held in the outgoing HID report.
	Register(code keycode.Code)

	// Unregister clears code from the outgoing HID report.
	Unregister(code keycode.Code)

	// SendReport flushes the current report state to the host. The
	// executor calls it after every register/unregister, marking a
	// logical "boundary" between otherwise indistinguishable calls (e.g.
	// a scripted key sequence from the key replacer).
	SendReport()
}

// Platform is the complete set of capabilities the pipeline core consumes.
// A concrete firmware (QMK, ZMK, bare-metal) implements this once; the
// core never needs to know which.
type Platform interface {
	Clock
	Layout
	HostReport
}
