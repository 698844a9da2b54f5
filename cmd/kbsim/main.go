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

//go:build !windows && !plan9

// Command kbsim drives the pipeline core from a real terminal: the keys
// listed below stand in for a one-row slice of a matrix, so the tap-dance,
// one-shot, and key-replacer behaviors wired up here can be tried
// interactively instead of only from tests.
//
//	a  -> tap-dance: tap = 'a', hold = layer 1 (TapPreferred)
//	s  -> one-shot left-shift
//	d  -> key replacer: expands to "hi"
//	f,g-> plain passthrough keys on layer 0
package main

import (
	"fmt"
	"os"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/soycabanillas/monkeyboard/buffer"
	"github.com/soycabanillas/monkeyboard/indicator"
	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/keyreplacer"
	"github.com/soycabanillas/monkeyboard/oneshot"
	"github.com/soycabanillas/monkeyboard/pipeline"
	"github.com/soycabanillas/monkeyboard/tapdance"
	"github.com/soycabanillas/monkeyboard/ttyplatform"
)

var positions = struct {
	a, s, d, f, g keycode.Position
}{
	a: keycode.Position{Row: 0, Col: 0},
	s: keycode.Position{Row: 0, Col: 1},
	d: keycode.Position{Row: 0, Col: 2},
	f: keycode.Position{Row: 0, Col: 3},
	g: keycode.Position{Row: 0, Col: 4},
}

func main() {
	tapDanceBehavior := tapdance.NewBehavior(0, 200, 200).
		SetTap(1, tapdance.TapAction{Keycode: keycode.Code('a')}).
		SetHold(1, tapdance.HoldAction{Layer: 1, Strategy: tapdance.TapPreferred})

	layer0 := map[keycode.Position]keycode.Code{
		positions.a: tapDanceBehavior.Keycode(),
		positions.s: keycode.OneShotModifier(keycode.ModShift),
		positions.d: keycode.Code('d'),
		positions.f: keycode.Code('f'),
		positions.g: keycode.Code('g'),
	}

	ttyplatform.BindRuneKey('a', positions.a)
	ttyplatform.BindRuneKey('s', positions.s)
	ttyplatform.BindRuneKey('d', positions.d)
	ttyplatform.BindRuneKey('f', positions.f)
	ttyplatform.BindRuneKey('g', positions.g)

	plat, err := ttyplatform.New("/dev/tty", layer0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kbsim:", err)
		os.Exit(1)
	}
	defer plat.Close()

	plat.SetLayer(1, map[keycode.Position]keycode.Code{
		positions.f: keycode.Code('F'),
		positions.g: keycode.Code('G'),
	})

	physical := []pipeline.Handler{tapdance.New(tapDanceBehavior)}
	virtual := []pipeline.Handler{
		oneshot.New(keycode.OneShotModifier(keycode.ModShift), keycode.LeftShift),
		keyreplacer.New(keyreplacer.NewBehavior(
			keycode.Code('d'),
			[]keycode.Code{keycode.Code('h'), keycode.Code('i')},
			nil,
		)),
	}

	buf := buffer.New(plat, buffer.DefaultOnlyPressCapacity, buffer.DefaultPressCapacity)
	exec := pipeline.New(plat, buf, physical, virtual)

	scheme := indicator.NewScheme()
	scheme.Set(0, indicator.RGB{R: 20, G: 20, B: 20})
	scheme.Set(1, indicator.RGB{R: 0, G: 120, B: 255})

	printBanner(plat)

	for ev := range plat.Events() {
		exec.ProcessKey(plat.CurrentLayer(), ev.Position, ev.Press)
		printIndicator(scheme, plat.LayerStack())
	}
}

// printIndicator renders the layer-feedback color a physical RGB underglow
// would show right now, the same way SendReport renders the host report.
func printIndicator(scheme *indicator.Scheme, stack []keycode.Layer) {
	color, ok := scheme.Resolve(stack)
	if !ok {
		return
	}
	fmt.Printf(" indicator: #%02x%02x%02x\r\n", color.R, color.G, color.B)
}

func printBanner(plat *ttyplatform.Platform) {
	cols, _ := plat.WindowSize()
	title := "monkeyboard kbsim -- a/s/d/f/g, ctrl-c to quit"
	pad := cols - runewidth.StringWidth(title)
	if pad < 0 {
		pad = 0
	}
	fmt.Printf("%s%*s\r\n", title, pad, "")
}
