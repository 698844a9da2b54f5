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

import (
	"github.com/soycabanillas/monkeyboard/buffer"
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/platform"
)

// noCapture is the sentinel "nobody currently owns the chain" value.
const noCapture = -1

// Executor drives events through a combined physical-then-virtual chain of
// Handlers. Physical handlers (combo, tap-dance) see keyposition events
// before layout resolution matters to them; virtual handlers (one-shot
// modifier, key replacer) see the resolved keycode and are the only ones
// that may touch host output. The executor treats both as one ordered
// chain, since the capture/emit/pass-through mechanics (spec §4.3) are
// identical for either kind -- a handler's position in the combined slice
// is what determines whether it is "physical" or "virtual".
type Executor struct {
	plat platform.Platform
	buf  *buffer.Buffer
	info Info

	physicalLen int
	chain       []Handler

	capturing      int // noCapture, or index into chain
	pendingTimeout uint32
	token          platform.Token
}

// New constructs an Executor with physical handlers run before virtual
// handlers, sharing buf for event storage and plat for timing, layout, and
// host report output.
func New(plat platform.Platform, buf *buffer.Buffer, physical, virtual []Handler) *Executor {
	chain := make([]Handler, 0, len(physical)+len(virtual))
	chain = append(chain, physical...)
	chain = append(chain, virtual...)
	return &Executor{
		plat:        plat,
		buf:         buf,
		info:        bufferInfo{buf: buf},
		physicalLen: len(physical),
		chain:       chain,
		capturing:   noCapture,
		token:       platform.InvalidToken,
	}
}

// IsVirtual reports whether the handler at idx is in the virtual chain
// (has crossed the layout-resolution boundary and may touch host output).
func (e *Executor) IsVirtual(idx int) bool { return idx >= e.physicalLen }

// Reset clears all buffered events, cancels any pending timeout, releases
// capture, and resets every handler's runtime state.
func (e *Executor) Reset() {
	if e.token != platform.InvalidToken {
		e.plat.Cancel(e.token)
		e.token = platform.InvalidToken
	}
	e.capturing = noCapture
	e.pendingTimeout = 0
	for e.buf.Len() > 0 {
		e.buf.RemoveAt(0)
	}
	for _, h := range e.chain {
		h.Reset()
	}
}

// ProcessKey admits a raw matrix press or release at pos (layer resolved
// at admission time) and drains the event queue through the chain.
func (e *Executor) ProcessKey(layer keycode.Layer, pos keycode.Position, isPress bool) {
	now := e.plat.Now()
	if err := e.buf.Add(layer, pos, isPress, now); err != nil {
		return // dropped: buffer full or unmatched release (spec §7)
	}
	e.drain()
}

// drain implements process_key_pool: cancel any pending timeout (the new
// event resolves it), then walk the queue front-to-back, dispatching each
// event to the chain (or to whichever handler currently holds capture)
// before removing it. Once the queue is empty, if the handler that ended
// up holding capture asked for a timeout, schedule it.
func (e *Executor) drain() {
	if e.token != platform.InvalidToken {
		e.plat.Cancel(e.token)
		e.token = platform.InvalidToken
	}

	for e.buf.Len() > 0 {
		entry := e.buf.At(0)
		ev := Event{
			Type:     eventType(entry.IsPress),
			Position: entry.Position,
			Keycode:  entry.Keycode,
			Layer:    entry.Layer,
			Time:     entry.Time,
			Pipeline: entry.Pipeline,
		}
		e.dispatch(ev)
		e.buf.RemoveAt(0)
	}

	if e.capturing != noCapture && e.pendingTimeout > 0 {
		target := e.capturing
		delay := e.pendingTimeout
		e.token = e.plat.Defer(delay, func() { e.fireTimeout(target) })
	}
}

func eventType(isPress bool) EventType {
	if isPress {
		return KeyPress
	}
	return KeyRelease
}

// fireTimeout synthesizes a Timer event for the handler that requested it,
// provided capture has not moved on in the meantime (a new event between
// the request and the fire would already have canceled this token, but a
// re-entrant capture request at the same instant is guarded against here
// too). Resolving the timer can itself emit new events (e.g. a tap-dance
// sequence resolving to a tap); drain processes those and reschedules a
// fresh timeout if the handler asked for one, exactly as it does after a
// physical key event.
func (e *Executor) fireTimeout(target int) {
	if e.capturing != target {
		return // stale
	}
	e.token = platform.InvalidToken
	e.dispatch(Event{Type: Timer, Pipeline: target, Time: e.plat.Now()})
	e.drain()
}

// dispatch routes ev to the chain starting from the appropriate index: if
// a handler currently holds capture, ev goes only to it (unless it is a
// stale Timer targeting a different handler); otherwise ev starts at index
// 0 for a matrix-originated event, or at Pipeline+1 for one emitted by an
// earlier handler, per spec §4.3's no-revisit rule. An event that reaches
// the end of the chain untouched falls through to the default host action.
func (e *Executor) dispatch(ev Event) {
	if e.capturing != noCapture {
		if ev.Type == Timer {
			if ev.Pipeline != e.capturing {
				return
			}
			e.invoke(e.capturing, ev)
			return
		}
		if ev.Pipeline != e.capturing {
			e.invoke(e.capturing, ev)
			return
		}
		// ev.Pipeline == e.capturing: the capturing handler emitted this
		// event itself (e.g. forwarding an interrupting key while it
		// waits out a hold timeout). It re-enters the chain one slot
		// after its emitter rather than looping back to the same
		// handler, exactly like any other emitted event.
	}

	start := 0
	if ev.Pipeline != buffer.FromMatrix {
		start = ev.Pipeline + 1
	}
	for i := start; i < len(e.chain); i++ {
		consumed := e.invoke(i, ev)
		if e.capturing == i {
			return // this handler just captured; stop walking the chain
		}
		if consumed {
			return // fully handled; do not fall through to the host
		}
	}

	e.fallthroughToHost(ev)
}

// invoke runs handler idx's callback against ev, wiring up an Actions
// implementation scoped to that handler's index, and reports whether the
// handler consumed the event.
func (e *Executor) invoke(idx int, ev Event) bool {
	wasCapturing := e.capturing == idx
	act := &actions{exec: e, idx: idx, now: ev.Time, pos: ev.Position, lastEmitPos: ev.Position}
	e.chain[idx].HandleEvent(ev, e.info, act)
	if act.captured {
		e.capturing = idx
		e.pendingTimeout = act.timeoutMs
	} else if wasCapturing {
		// implicit release: this handler held capture and did not renew it
		e.capturing = noCapture
		e.pendingTimeout = 0
	}
	return act.consumed
}

// fallthroughToHost is the default action for an event that passed through
// every handler untouched: a virtual-boundary passthrough registers or
// unregisters the resolved keycode directly, mirroring the original
// firmware's basic-keycode fallthrough.
func (e *Executor) fallthroughToHost(ev Event) {
	if ev.Type == Timer {
		return
	}
	if ev.Type == KeyPress {
		e.plat.Register(ev.Keycode)
	} else {
		e.plat.Unregister(ev.Keycode)
	}
	e.plat.SendReport()
}
