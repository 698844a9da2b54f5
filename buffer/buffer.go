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

// Package buffer holds the two bounded, allocation-free logs the pipeline
// executor consults and mutates on every key event: a log of currently
// pressed keys (OnlyPress) and a FIFO history of press/release events
// (Press). Both are fixed-capacity arrays, sized at construction, so a
// buffer never grows once the firmware has booted.
package buffer

import "github.com/soycabanillas/monkeyboard/keycode"

// DefaultOnlyPressCapacity is the default bound on simultaneously pressed
// keys the buffer tracks.
const DefaultOnlyPressCapacity = 5

// DefaultPressCapacity is the default bound on buffered press/release
// events.
const DefaultPressCapacity = 10

// FromMatrix marks a PressEntry's Pipeline field as originating from the
// physical matrix scan rather than from a pipeline's emit call.
const FromMatrix = -1

// OnlyPressEntry records one currently-pressed key: where it is, what it
// resolved to at the moment of the press, which layer it was resolved
// against, and whether a matching release has already been appended to the
// press log (it stays in this buffer until that release is itself
// consumed).
type OnlyPressEntry struct {
	Position        keycode.Position
	Keycode         keycode.Code
	Layer           keycode.Layer
	Time            keycode.Timestamp
	ReleaseBuffered bool
}

// PressEntry records one press or release event in arrival order. Pipeline
// is FromMatrix for an event read straight off the key matrix, or the
// index of the pipeline that emitted it otherwise (spec §3,
// "provenance").
type PressEntry struct {
	Position keycode.Position
	Keycode  keycode.Code
	Layer    keycode.Layer
	IsPress  bool
	Time     keycode.Timestamp
	Pipeline int
}

// KeycodeResolver resolves the keycode bound to a position on a layer. It
// is the one piece of layout knowledge the buffer needs, supplied by
// whatever implements platform.Layout.
type KeycodeResolver interface {
	KeycodeAt(layer keycode.Layer, pos keycode.Position) keycode.Code
}

// Buffer is the bounded pair of logs described in the package doc. The
// zero value is not usable; construct with New.
type Buffer struct {
	resolver KeycodeResolver

	onlyPress    []OnlyPressEntry
	onlyPressCap int

	press    []PressEntry
	pressCap int
}

// New constructs a Buffer with the given capacities, bound to resolver for
// keycode lookups at press time.
func New(resolver KeycodeResolver, onlyPressCap, pressCap int) *Buffer {
	return &Buffer{
		resolver:     resolver,
		onlyPress:    make([]OnlyPressEntry, 0, onlyPressCap),
		onlyPressCap: onlyPressCap,
		press:        make([]PressEntry, 0, pressCap),
		pressCap:     pressCap,
	}
}

// ErrBufferFull is returned by Add when there is no room to admit the
// event without risking an unmatched release later.
var ErrBufferFull = &bufferFullError{}

type bufferFullError struct{}

func (*bufferFullError) Error() string { return "buffer: full" }

// KeycodeIsPressed reports whether any currently-pressed key resolved to
// keycode, scanning newest-first to match the original firmware's
// last-wins semantics for aliased bindings.
func (b *Buffer) KeycodeIsPressed(code keycode.Code) bool {
	for i := len(b.onlyPress) - 1; i >= 0; i-- {
		if b.onlyPress[i].Keycode == code {
			return true
		}
	}
	return false
}

// PositionIsPressed reports whether pos currently has an unreleased press
// recorded.
func (b *Buffer) PositionIsPressed(pos keycode.Position) bool {
	for i := len(b.onlyPress) - 1; i >= 0; i-- {
		if b.onlyPress[i].Position.Equal(pos) && !b.onlyPress[i].ReleaseBuffered {
			return true
		}
	}
	return false
}

// Add resolves the keycode bound to pos on layer and appends the resulting
// press or release event to the press log, as a fresh matrix-originated
// event. See AddEvent for the admission rules.
func (b *Buffer) Add(layer keycode.Layer, pos keycode.Position, isPress bool, now keycode.Timestamp) error {
	code := b.resolver.KeycodeAt(layer, pos)
	return b.AddEvent(code, pos, layer, isPress, now, FromMatrix)
}

// AddEvent appends a press or release event to the press log under an
// explicit keycode, and on a press, also opens (or on a release, closes)
// the matching OnlyPress entry. pipeline is FromMatrix for a raw matrix
// event, or the emitting pipeline's index for a synthesized one (e.g. a
// tap-dance behavior's emitted tap).
//
// A press is admitted only if the press log has room for both this event
// and its eventual release (press_buffer_pos + 1 < cap); this reserves a
// slot so that a key which outlives a burst of other presses can still be
// released without overflowing. A release is admitted only if a matching,
// not-yet-buffered press exists; an unmatched release is rejected rather
// than silently invented (spec §3, "UnmatchedRelease is dropped").
func (b *Buffer) AddEvent(code keycode.Code, pos keycode.Position, layer keycode.Layer, isPress bool, now keycode.Timestamp, pipeline int) error {
	if isPress {
		if len(b.press)+1 >= b.pressCap {
			return ErrBufferFull
		}
		// A forwarded press that is truly a re-emission of one already
		// open at this position and keycode -- e.g. tap-dance relaying
		// an interrupting key while it holds capture -- must not open a
		// second only-press entry, or the eventual single release
		// would close the wrong one and leak the other. A press that
		// shares only the position (a tap-dance trigger still held
		// down while its resolved output is synthesized at the same
		// position) is a distinct logical key and gets its own entry,
		// so its own synthetic release closes that entry and not the
		// still-down trigger's.
		alreadyOpen := false
		for i := len(b.onlyPress) - 1; i >= 0; i-- {
			if b.onlyPress[i].Position.Equal(pos) && b.onlyPress[i].Keycode == code && !b.onlyPress[i].ReleaseBuffered {
				alreadyOpen = true
				break
			}
		}
		if !alreadyOpen {
			if len(b.onlyPress) >= b.onlyPressCap {
				return ErrBufferFull
			}
			b.onlyPress = append(b.onlyPress, OnlyPressEntry{
				Position: pos,
				Keycode:  code,
				Layer:    layer,
				Time:     now,
			})
		}
		b.press = append(b.press, PressEntry{
			Position: pos,
			Keycode:  code,
			Layer:    layer,
			IsPress:  true,
			Time:     now,
			Pipeline: pipeline,
		})
		return nil
	}

	if len(b.press) >= b.pressCap {
		return ErrBufferFull
	}
	pressLayer := keycode.Layer(0)
	matched := false
	// Prefer the newest unreleased entry that also matches the released
	// keycode: when two entries share a position (a tap-dance trigger
	// still held, plus a synthetic output resolved at the same
	// position), this picks the one the caller actually means to close.
	// Fall back to a position-only match for the ordinary case of a
	// release resolving to a different keycode than the press did
	// (e.g. a layer shift between press and release).
	for i := len(b.onlyPress) - 1; i >= 0; i-- {
		if b.onlyPress[i].Position.Equal(pos) && b.onlyPress[i].Keycode == code && !b.onlyPress[i].ReleaseBuffered {
			b.onlyPress[i].ReleaseBuffered = true
			pressLayer = b.onlyPress[i].Layer
			matched = true
			break
		}
	}
	// A release that re-emits one already buffered at this position and
	// keycode (e.g. one-shot relaying the wrapped key's release) is the
	// counterpart of a re-emitted press: it closes nothing new, and must
	// not fall through to the position-only match and close another key's
	// entry at the same position.
	if !matched {
		for i := len(b.onlyPress) - 1; i >= 0; i-- {
			if b.onlyPress[i].Position.Equal(pos) && b.onlyPress[i].Keycode == code && b.onlyPress[i].ReleaseBuffered {
				pressLayer = b.onlyPress[i].Layer
				matched = true
				break
			}
		}
	}
	if !matched {
		for i := len(b.onlyPress) - 1; i >= 0; i-- {
			if b.onlyPress[i].Position.Equal(pos) && !b.onlyPress[i].ReleaseBuffered {
				b.onlyPress[i].ReleaseBuffered = true
				pressLayer = b.onlyPress[i].Layer
				matched = true
				break
			}
		}
	}
	if !matched {
		return ErrBufferFull
	}
	b.press = append(b.press, PressEntry{
		Position: pos,
		Keycode:  code,
		Layer:    pressLayer,
		IsPress:  false,
		Time:     now,
		Pipeline: pipeline,
	})
	return nil
}

// RemoveAt removes the press-log entry at index i, compacting the slice.
// If that entry is a release, its matching OnlyPress entry (which has sat
// there since the press, marked ReleaseBuffered) is removed too. Consumers
// are expected to drain the press log front-to-back (FIFO), calling
// RemoveAt(0) once an entry has been fully processed by every pipeline.
func (b *Buffer) RemoveAt(i int) {
	entry := b.press[i]
	if !entry.IsPress {
		for j := len(b.onlyPress) - 1; j >= 0; j-- {
			if b.onlyPress[j].Position.Equal(entry.Position) {
				b.onlyPress = append(b.onlyPress[:j], b.onlyPress[j+1:]...)
				break
			}
		}
	}
	b.press = append(b.press[:i], b.press[i+1:]...)
}

// Len returns the number of entries currently queued in the press log.
func (b *Buffer) Len() int { return len(b.press) }

// At returns the press-log entry at index i.
func (b *Buffer) At(i int) PressEntry { return b.press[i] }

// OnlyPressLen returns the number of keys currently tracked as pressed.
func (b *Buffer) OnlyPressLen() int { return len(b.onlyPress) }
