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

// Package indicator computes the RGB underglow color a platform should show
// for its currently active layer stack. Each layer can be assigned a color;
// the displayed color is the topmost active layer's, softened by blending in
// the layer below it. Snap separately maps a color to whatever discrete LED
// palette the hardware actually supports; Resolve does not snap.
package indicator

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/soycabanillas/monkeyboard/keycode"
)

// RGB is an 8-bit-per-channel color, the form a platform's LED driver
// expects.
type RGB struct {
	R, G, B uint8
}

func (c RGB) toColorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func fromColorful(c colorful.Color) RGB {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255.0 + 0.5)
	}
	return RGB{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B)}
}

// Scheme assigns a color to each layer that should light the indicator
// differently than the base layer. A layer with no entry is treated as
// transparent: it contributes nothing and the layer below shows through.
type Scheme struct {
	colors map[keycode.Layer]RGB
	blend  float64
}

// NewScheme constructs an empty Scheme. blend is how much of the layer
// below the topmost active one shows through (0 = topmost only, 0.5 = evenly
// averaged, 1 = the layer below only); spec.md does not mandate a value, so 0.25 (a light tint of the
// layer underneath) is the default, overridable with SetBlend.
func NewScheme() *Scheme {
	return &Scheme{colors: make(map[keycode.Layer]RGB), blend: 0.25}
}

// Set assigns color to layer.
func (s *Scheme) Set(layer keycode.Layer, color RGB) {
	s.colors[layer] = color
}

// SetBlend overrides how much of the next-lower colored layer tints the
// topmost one, clamped to [0,1].
func (s *Scheme) SetBlend(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	s.blend = fraction
}

// Resolve computes the display color for stack, read topmost-last (the
// same order platform.Layout.CurrentLayer reads it), by taking the topmost
// colored layer and blending in the next colored layer beneath it.
func (s *Scheme) Resolve(stack []keycode.Layer) (RGB, bool) {
	top, topOK := RGB{}, false
	var under RGB
	underOK := false

	for i := len(stack) - 1; i >= 0; i-- {
		c, ok := s.colors[stack[i]]
		if !ok {
			continue
		}
		if !topOK {
			top, topOK = c, true
			continue
		}
		under, underOK = c, true
		break
	}

	if !topOK {
		return RGB{}, false
	}
	if !underOK {
		return top, true
	}
	return fromColorful(under.toColorful().BlendRgb(top.toColorful(), 1-s.blend)), true
}

// Snap finds the closest color in palette to c under the CIE76 perceptual
// distance metric, the same approach tcell's own terminal color quantizer
// uses to map an arbitrary RGB value down to whatever a given terminal's
// color palette actually supports. Returns the zero RGB if palette is empty.
func Snap(c RGB, palette []RGB) RGB {
	if len(palette) == 0 {
		return RGB{}
	}
	target := c.toColorful()
	best := palette[0]
	bestDist := target.DistanceCIE76(best.toColorful())
	for _, candidate := range palette[1:] {
		d := target.DistanceCIE76(candidate.toColorful())
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
