package pipeline

import (
	"testing"

	"github.com/soycabanillas/monkeyboard/buffer"
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/platform"
)

// fakePlatform is a minimal platform.Platform for executor tests: a
// manually-advanced clock, a single-layer keymap, an immediate (not
// time-ordered) deferred-callback list, and a recorded host report log.
type fakePlatform struct {
	now    keycode.Timestamp
	keymap map[keycode.Position]keycode.Code

	deferred  []fakeDeferred
	nextToken platform.Token

	report []string
}

type fakeDeferred struct {
	token platform.Token
	at    keycode.Timestamp
	fn    platform.Callback
}

func newFakePlatform(keymap map[keycode.Position]keycode.Code) *fakePlatform {
	return &fakePlatform{keymap: keymap, nextToken: 1}
}

func (p *fakePlatform) Now() keycode.Timestamp { return p.now }

func (p *fakePlatform) Defer(delayMs uint32, fn platform.Callback) platform.Token {
	tok := p.nextToken
	p.nextToken++
	p.deferred = append(p.deferred, fakeDeferred{token: tok, at: p.now.Add(delayMs), fn: fn})
	return tok
}

func (p *fakePlatform) Cancel(token platform.Token) bool {
	for i, d := range p.deferred {
		if d.token == token {
			p.deferred = append(p.deferred[:i], p.deferred[i+1:]...)
			return true
		}
	}
	return false
}

func (p *fakePlatform) CurrentLayer() keycode.Layer         { return 0 }
func (p *fakePlatform) ActivateLayer(layer keycode.Layer)   {}
func (p *fakePlatform) DeactivateLayer(layer keycode.Layer) {}
func (p *fakePlatform) KeycodeAt(layer keycode.Layer, pos keycode.Position) keycode.Code {
	return p.keymap[pos]
}

func (p *fakePlatform) Register(code keycode.Code)   { p.report = append(p.report, "reg") }
func (p *fakePlatform) Unregister(code keycode.Code) { p.report = append(p.report, "unreg") }
func (p *fakePlatform) SendReport()                  { p.report = append(p.report, "send") }

// advance moves the fake clock forward and fires any deferred callback
// whose time has come, oldest-scheduled first.
func (p *fakePlatform) advance(ms uint32) {
	p.now = p.now.Add(ms)
	for {
		fired := -1
		for i, d := range p.deferred {
			if p.now.AtOrAfter(d.at) {
				fired = i
				break
			}
		}
		if fired < 0 {
			return
		}
		d := p.deferred[fired]
		p.deferred = append(p.deferred[:fired], p.deferred[fired+1:]...)
		d.fn()
	}
}

// recordingHandler appends every event it sees to a log.
type recordingHandler struct {
	log *[]Event
}

func (h recordingHandler) HandleEvent(ev Event, info Info, actions Actions) {
	*h.log = append(*h.log, ev)
}
func (h recordingHandler) Reset() {}

func TestPlainKeyFallsThroughToHost(t *testing.T) {
	pos := keycode.Position{Row: 0, Col: 0}
	plat := newFakePlatform(map[keycode.Position]keycode.Code{pos: keycode.LeftShift})
	buf := buffer.New(plat, buffer.DefaultOnlyPressCapacity, buffer.DefaultPressCapacity)
	exec := New(plat, buf, nil, nil)

	exec.ProcessKey(0, pos, true)
	if len(plat.report) != 2 || plat.report[0] != "reg" || plat.report[1] != "send" {
		t.Fatalf("report log = %v, want [reg send]", plat.report)
	}

	exec.ProcessKey(0, pos, false)
	if len(plat.report) != 4 || plat.report[2] != "unreg" || plat.report[3] != "send" {
		t.Fatalf("report log = %v, want [.. unreg send]", plat.report)
	}
}

// captureOnceHandler captures the chain on its first press, and releases
// (implicitly, by not renewing) on the next event it sees.
type captureOnceHandler struct {
	log        *[]Event
	triggerPos keycode.Position
}

func (h *captureOnceHandler) HandleEvent(ev Event, info Info, actions Actions) {
	*h.log = append(*h.log, ev)
	if ev.Type == KeyPress && ev.Position == h.triggerPos && len(*h.log) == 1 {
		actions.CaptureNextKeys()
	}
}
func (h *captureOnceHandler) Reset() {}

func TestCaptureRoutesSubsequentEventsToOwner(t *testing.T) {
	trigger := keycode.Position{Row: 0, Col: 0}
	other := keycode.Position{Row: 0, Col: 1}
	plat := newFakePlatform(map[keycode.Position]keycode.Code{
		trigger: keycode.TapDance(0),
		other:   keycode.LeftShift,
	})
	buf := buffer.New(plat, buffer.DefaultOnlyPressCapacity, buffer.DefaultPressCapacity)

	var capturerLog []Event
	capturer := &captureOnceHandler{log: &capturerLog, triggerPos: trigger}
	var tailLog []Event
	tail := recordingHandler{log: &tailLog}

	exec := New(plat, buf, []Handler{capturer, tail}, nil)

	exec.ProcessKey(0, trigger, true)
	exec.ProcessKey(0, other, true) // should route only to capturer, not tail

	if len(capturerLog) != 2 {
		t.Fatalf("capturer saw %d events, want 2", len(capturerLog))
	}
	if len(tailLog) != 0 {
		t.Fatalf("tail handler saw %d events while capture was held, want 0", len(tailLog))
	}

	// capture was not renewed on the second event, so a third event
	// should flow normally again and reach the tail handler.
	exec.ProcessKey(0, other, false)
	if len(tailLog) != 1 {
		t.Fatalf("tail handler saw %d events after implicit release, want 1", len(tailLog))
	}
}

// emittingHandler replaces every press at trigger with a synthetic key
// (consuming the original press), and otherwise passes through.
type emittingHandler struct {
	trigger keycode.Position
	emit    keycode.Code
}

func (h emittingHandler) HandleEvent(ev Event, info Info, actions Actions) {
	if ev.Type == KeyPress && ev.Position == h.trigger {
		actions.EmitKey(h.emit, h.trigger)
		actions.Consume()
	}
}
func (h emittingHandler) Reset() {}

func TestEmittedEventSkipsEmittingHandlerOnReentry(t *testing.T) {
	trigger := keycode.Position{Row: 2, Col: 2}
	plat := newFakePlatform(map[keycode.Position]keycode.Code{trigger: keycode.TapDance(1)})
	buf := buffer.New(plat, buffer.DefaultOnlyPressCapacity, buffer.DefaultPressCapacity)

	emitter := emittingHandler{trigger: trigger, emit: keycode.LeftCtrl}
	var afterLog []Event
	after := recordingHandler{log: &afterLog}

	exec := New(plat, buf, []Handler{emitter, after}, nil)
	exec.ProcessKey(0, trigger, true)

	// The emitter's own tap(+release) of LeftCtrl must reach `after` but
	// never re-enter `emitter` itself (which would recurse forever if it
	// always emitted on a press of its trigger keycode).
	if len(afterLog) != 2 {
		t.Fatalf("after handler saw %d events, want 2 (emitted press+release)", len(afterLog))
	}
	for _, ev := range afterLog {
		if ev.Keycode != keycode.LeftCtrl {
			t.Fatalf("after handler saw unexpected keycode %v", ev.Keycode)
		}
	}
}

func TestCaptureWithTimeoutFiresTimerEvent(t *testing.T) {
	trigger := keycode.Position{Row: 4, Col: 4}
	plat := newFakePlatform(map[keycode.Position]keycode.Code{trigger: keycode.TapDance(2)})
	buf := buffer.New(plat, buffer.DefaultOnlyPressCapacity, buffer.DefaultPressCapacity)

	var log []Event
	captured := false
	handler := handlerFunc(func(ev Event, info Info, actions Actions) {
		log = append(log, ev)
		if ev.Type == KeyPress && !captured {
			captured = true
			actions.CaptureNextKeysOrTimeout(200)
		}
	})

	exec := New(plat, buf, []Handler{handler}, nil)
	exec.ProcessKey(0, trigger, true)
	plat.advance(200)

	if len(log) != 2 {
		t.Fatalf("log = %v, want 2 entries (press, timer)", log)
	}
	if log[1].Type != Timer {
		t.Fatalf("second event type = %v, want Timer", log[1].Type)
	}
}

// handlerFunc adapts a plain function to Handler for single-purpose test
// handlers that don't need their own Reset state.
type handlerFunc func(ev Event, info Info, actions Actions)

func (f handlerFunc) HandleEvent(ev Event, info Info, actions Actions) { f(ev, info, actions) }
func (f handlerFunc) Reset()                                           {}
