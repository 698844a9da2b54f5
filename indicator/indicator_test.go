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

package indicator

import (
	"testing"

	"github.com/soycabanillas/monkeyboard/keycode"
)

func TestResolveUsesTopmostColoredLayer(t *testing.T) {
	s := NewScheme()
	s.Set(0, RGB{R: 10, G: 10, B: 10})
	s.Set(2, RGB{R: 200, G: 0, B: 0})

	got, ok := s.Resolve([]keycode.Layer{0, 1, 2})
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	// layer 1 is uncolored (transparent); blending happens against layer 0.
	if got.R == 0 {
		t.Fatalf("got = %+v, want some red tint from layer 2", got)
	}
}

func TestResolveFallsBackWhenNothingColored(t *testing.T) {
	s := NewScheme()
	if _, ok := s.Resolve([]keycode.Layer{0, 1}); ok {
		t.Fatal("Resolve() ok = true, want false with no colored layers")
	}
}

func TestResolveReturnsTopAloneWhenOnlyOneColored(t *testing.T) {
	s := NewScheme()
	s.Set(3, RGB{R: 1, G: 2, B: 3})
	got, ok := s.Resolve([]keycode.Layer{0, 3})
	if !ok || got != (RGB{R: 1, G: 2, B: 3}) {
		t.Fatalf("Resolve() = %+v,%v, want {1 2 3},true", got, ok)
	}
}

func TestSnapPicksClosestPaletteEntry(t *testing.T) {
	palette := []RGB{{R: 255, G: 0, B: 0}, {R: 0, G: 255, B: 0}, {R: 0, G: 0, B: 255}}
	got := Snap(RGB{R: 250, G: 10, B: 5}, palette)
	if got != palette[0] {
		t.Fatalf("Snap() = %+v, want %+v (closest to pure red)", got, palette[0])
	}
}

func TestSnapEmptyPalette(t *testing.T) {
	if got := Snap(RGB{R: 1, G: 2, B: 3}, nil); got != (RGB{}) {
		t.Fatalf("Snap() = %+v, want zero value for empty palette", got)
	}
}
