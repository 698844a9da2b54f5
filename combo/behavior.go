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

// Package combo implements the multi-key combo pipeline: simultaneous
// presses of a configured key set within a window produce a single combo
// output instead of each key's own.
package combo

import "github.com/soycabanillas/monkeyboard/keycode"

// ActionKind selects what a combo's press translation does.
type ActionKind int

const (
	// NoOp produces no output at all; the combo merely swallows its
	// members' presses.
	NoOp ActionKind = iota
	// RegisterKeycode registers a single keycode on activation and
	// unregisters it on the first member release.
	RegisterKeycode
	// SendSequence taps each keycode in Sequence, in order, once at
	// activation; there is nothing left to do on release.
	SendSequence
)

// Action is a combo's press translation.
type Action struct {
	Kind     ActionKind
	Keycode  keycode.Code
	Sequence []keycode.Code
}

// Behavior configures one combo: the keyposition set that must all be held
// within Window of each other, and the action to take on activation.
type Behavior struct {
	Members []keycode.Position
	WindowMs uint32
	Action   Action
}

// NewBehavior constructs a Behavior for the given member positions and
// activation window.
func NewBehavior(window uint32, action Action, members ...keycode.Position) *Behavior {
	return &Behavior{Members: members, WindowMs: window, Action: action}
}

func (b *Behavior) indexOf(pos keycode.Position) int {
	for i, m := range b.Members {
		if m.Equal(pos) {
			return i
		}
	}
	return -1
}
