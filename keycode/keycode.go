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

// Package keycode defines the opaque logical key identifier and physical
// matrix position types shared by every pipeline in the module.
package keycode

// Code is an opaque 16-bit logical key identifier. The executor and the
// buffers never interpret it; only pipelines configured for a particular
// range or exact value react to it. Reserved ranges below mirror the
// firmware's keymap conventions (see original_source/src/keycodes.h) so a
// platform's keymap table and this module agree on meaning without either
// side hard-coding the other's layout.
type Code uint16

// None is the reserved "no key" code. The executor does not filter it: an
// event that resolves to None is dispatched and reported like any other.
const None Code = 0x0000

// Transparent means "fall through to the layer below," resolved by the
// platform's keymap lookup before the executor ever sees a key event.
const Transparent Code = 0x0001

// Modifier bit values, used as the payload of OneShotModifier. They are not
// bits of the modifier key codes below (LeftCtrl..RightGui).
const (
	ModCtrl Code = 1 << iota
	ModShift
	ModAlt
	ModGui
)

// Modifier key codes, one per physical modifier key.
const (
	LeftCtrl Code = 0x00E0 + iota
	LeftShift
	LeftAlt
	LeftGui
	RightCtrl
	RightShift
	RightAlt
	RightGui
)

// Reserved range bases for compound keycodes. A behavior-dispatching
// keycode is constructed by OR-ing a small payload (modifier bit,
// tap-dance index) into the low byte of one of these bases. Layer changes
// in this module are never driven by scanning the matrix for a dedicated
// layer keycode; they are issued directly by the behavior that decides
// them (tapdance's hold action calls platform.Layout.ActivateLayer), so
// no base or constructor is reserved for one here.
const (
	baseOneShotMod Code = 0x5400 // OSM(mod): one-shot modifier
	baseTapDance   Code = 0x5600 // TD(index): tap-dance behavior trigger
)

// OneShotModifier builds the keycode for a one-shot modifier trigger.
func OneShotModifier(mod Code) Code { return baseOneShotMod | mod }

// TapDance builds the keycode that triggers the tap-dance behavior at the
// given configuration index.
func TapDance(index uint8) Code { return baseTapDance | Code(index) }

// Layer identifies an overlay in the keymap. Layer 0 is the base layer and
// is never itself deactivated.
type Layer uint8
