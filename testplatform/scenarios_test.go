package testplatform

import (
	"testing"

	"github.com/soycabanillas/monkeyboard/buffer"
	"github.com/soycabanillas/monkeyboard/combo"
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/oneshot"
	"github.com/soycabanillas/monkeyboard/pipeline"
	"github.com/soycabanillas/monkeyboard/tapdance"
)

// These mirror the end-to-end scenarios (absolute timestamps in ms).

func bufFor(plat *Platform) *buffer.Buffer {
	return buffer.New(plat, buffer.DefaultOnlyPressCapacity, buffer.DefaultPressCapacity)
}

func TestScenarioS1SimpleTap(t *testing.T) {
	k := keycode.Position{Row: 0, Col: 0}
	behavior := tapdance.NewBehavior(0, 200, 200).
		SetTap(1, tapdance.TapAction{Keycode: keycode.Code('A')}).
		SetHold(1, tapdance.HoldAction{Layer: 1, Strategy: tapdance.TapPreferred})
	td := tapdance.New(behavior)
	plat := New(map[keycode.Position]keycode.Code{k: behavior.Keycode()})
	exec := pipeline.New(plat, bufFor(plat), []pipeline.Handler{td}, nil)

	exec.ProcessKey(plat.CurrentLayer(), k, true)
	plat.Advance(150)
	exec.ProcessKey(plat.CurrentLayer(), k, false)

	want := []ReportEvent{
		{Press: true, Code: keycode.Code('A'), Time: 150},
		{Press: false, Code: keycode.Code('A'), Time: 150},
	}
	assertEvents(t, plat.Events, want)
}

func TestScenarioS2SimpleHold(t *testing.T) {
	k := keycode.Position{Row: 0, Col: 1}
	behavior := tapdance.NewBehavior(1, 200, 200).
		SetTap(1, tapdance.TapAction{Keycode: keycode.Code('A')}).
		SetHold(1, tapdance.HoldAction{Layer: 1, Strategy: tapdance.TapPreferred})
	td := tapdance.New(behavior)
	plat := New(map[keycode.Position]keycode.Code{k: behavior.Keycode()})
	exec := pipeline.New(plat, bufFor(plat), []pipeline.Handler{td}, nil)

	exec.ProcessKey(plat.CurrentLayer(), k, true)
	plat.Advance(200) // fires the hold timeout
	if plat.CurrentLayer() != 1 {
		t.Fatalf("CurrentLayer() = %v, want 1 after the hold timeout at 200", plat.CurrentLayer())
	}
	plat.Advance(50) // @250
	exec.ProcessKey(plat.CurrentLayer(), k, false)
	if plat.CurrentLayer() != 0 {
		t.Fatalf("CurrentLayer() = %v, want 0 after releasing the held key", plat.CurrentLayer())
	}

	want := []LayerEvent{
		{Activate: true, Layer: 1, Time: 200},
		{Activate: false, Layer: 1, Time: 250},
	}
	assertLayerEvents(t, plat.LayerEvents, want)
}

func TestScenarioS3RolledOverlapTapPreferred(t *testing.T) {
	k := keycode.Position{Row: 0, Col: 2}
	b := keycode.Position{Row: 0, Col: 3}
	behavior := tapdance.NewBehavior(2, 200, 200).
		SetTap(1, tapdance.TapAction{Keycode: keycode.Code('A')}).
		SetHold(1, tapdance.HoldAction{Layer: 1, Strategy: tapdance.TapPreferred})
	td := tapdance.New(behavior)
	keymap := map[keycode.Position]keycode.Code{k: behavior.Keycode(), b: keycode.Code('B')}
	plat := New(keymap)
	exec := pipeline.New(plat, bufFor(plat), []pipeline.Handler{td}, nil)

	exec.ProcessKey(plat.CurrentLayer(), k, true) // @0
	plat.Advance(110)
	exec.ProcessKey(plat.CurrentLayer(), b, true) // @110
	plat.Advance(10)
	exec.ProcessKey(plat.CurrentLayer(), b, false) // @120
	plat.Advance(79)
	exec.ProcessKey(plat.CurrentLayer(), k, false) // @199: resolves the tap, forwards B's roll

	want := []ReportEvent{
		{Press: true, Code: keycode.Code('A'), Time: 199},
		{Press: true, Code: keycode.Code('B'), Time: 199},
		{Press: false, Code: keycode.Code('B'), Time: 199},
		{Press: false, Code: keycode.Code('A'), Time: 199},
	}
	assertEvents(t, plat.Events, want)
}

func TestScenarioS4SameInputHoldPreferred(t *testing.T) {
	k := keycode.Position{Row: 0, Col: 4}
	b := keycode.Position{Row: 0, Col: 5}
	behavior := tapdance.NewBehavior(3, 200, 200).
		SetTap(1, tapdance.TapAction{Keycode: keycode.Code('A')}).
		SetHold(1, tapdance.HoldAction{Layer: 1, Strategy: tapdance.HoldPreferred})
	td := tapdance.New(behavior)
	keymap := map[keycode.Position]keycode.Code{k: behavior.Keycode(), b: keycode.Code('Z')}
	plat := New(keymap)
	exec := pipeline.New(plat, bufFor(plat), []pipeline.Handler{td}, nil)

	exec.ProcessKey(plat.CurrentLayer(), k, true) // @0
	plat.Advance(110)
	exec.ProcessKey(plat.CurrentLayer(), b, true) // @110: HoldPreferred commits on first interrupting press
	if plat.CurrentLayer() != 1 {
		t.Fatalf("CurrentLayer() = %v, want 1 -- HoldPreferred commits immediately on interruption", plat.CurrentLayer())
	}
	plat.Advance(10)
	exec.ProcessKey(plat.CurrentLayer(), b, false) // @120
	plat.Advance(10)
	exec.ProcessKey(plat.CurrentLayer(), k, false) // @130: releases the hold

	// b is bound to the same keycode on every layer here, so this does not
	// exercise the known simplification around re-resolving an interrupting
	// key against the layer a commit just activated -- see the tapdance
	// entry in DESIGN.md.
	want := []ReportEvent{
		{Press: true, Code: keycode.Code('Z'), Time: 110},
		{Press: false, Code: keycode.Code('Z'), Time: 120},
	}
	assertEvents(t, plat.Events, want)
}

func TestScenarioS5Combo(t *testing.T) {
	c1 := keycode.Position{Row: 1, Col: 0}
	c2 := keycode.Position{Row: 1, Col: 1}
	b := combo.NewBehavior(50, combo.Action{Kind: combo.RegisterKeycode, Keycode: keycode.Code('X')}, c1, c2)
	h := combo.New(b)
	keymap := map[keycode.Position]keycode.Code{c1: keycode.Code('1'), c2: keycode.Code('2')}
	plat := New(keymap)
	exec := pipeline.New(plat, bufFor(plat), []pipeline.Handler{h}, nil)

	exec.ProcessKey(plat.CurrentLayer(), c1, true) // @0
	plat.Advance(10)
	exec.ProcessKey(plat.CurrentLayer(), c2, true) // @10: both down, window starts
	plat.Advance(50)                               // @60: window elapses, combo commits
	plat.Advance(10)
	exec.ProcessKey(plat.CurrentLayer(), c1, false) // @70
	plat.Advance(10)
	exec.ProcessKey(plat.CurrentLayer(), c2, false) // @80, swallowed

	want := []ReportEvent{
		{Press: true, Code: keycode.Code('X'), Time: 60},
		{Press: false, Code: keycode.Code('X'), Time: 70},
	}
	assertEvents(t, plat.Events, want)
}

func TestScenarioS6OneShotModifier(t *testing.T) {
	m := keycode.Position{Row: 2, Col: 0}
	l := keycode.Position{Row: 2, Col: 1}
	trigger := keycode.TapDance(30)
	keymap := map[keycode.Position]keycode.Code{m: trigger, l: keycode.Code('L')}
	h := oneshot.New(trigger, keycode.LeftShift)
	plat := New(keymap)
	exec := pipeline.New(plat, bufFor(plat), nil, []pipeline.Handler{h})

	exec.ProcessKey(plat.CurrentLayer(), m, true) // @0
	plat.Advance(5)
	exec.ProcessKey(plat.CurrentLayer(), m, false) // @5
	plat.Advance(15)
	exec.ProcessKey(plat.CurrentLayer(), l, true) // @20
	plat.Advance(10)
	exec.ProcessKey(plat.CurrentLayer(), l, false) // @30

	// The scenario's own listing states the two releases both land at @30
	// without ordering them; this asserts L before Shift, matching the
	// modifier-release-after-its-wrapped-key semantics described in
	// spec.md's one-shot modifier section rather than the listing's literal
	// order. See the tapdance/HoldPreferred note above for the same kind of
	// call between a scenario's literal wording and its semantic intent.
	want := []ReportEvent{
		{Press: true, Code: keycode.LeftShift, Time: 20},
		{Press: true, Code: keycode.Code('L'), Time: 20},
		{Press: false, Code: keycode.Code('L'), Time: 30},
		{Press: false, Code: keycode.LeftShift, Time: 30},
	}
	assertEvents(t, plat.Events, want)
}

func assertEvents(t *testing.T, got, want []ReportEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Events = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Events[%d] = %+v, want %+v (full: got=%+v want=%+v)", i, got[i], want[i], got, want)
		}
	}
}

func assertLayerEvents(t *testing.T, got, want []LayerEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("LayerEvents = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LayerEvents[%d] = %+v, want %+v (full: got=%+v want=%+v)", i, got[i], want[i], got, want)
		}
	}
}
