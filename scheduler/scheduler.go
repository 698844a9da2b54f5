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

// Package scheduler implements the bounded deferred-callback queue that
// backs platform.Clock.Defer/Cancel: a fixed array of slots, kept sorted by
// (execute time, arrival order) so Tick can stop at the first not-yet-due
// entry instead of scanning the whole array every call.
package scheduler

import (
	"sort"

	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/platform"
)

// DefaultCapacity is the default number of simultaneously pending deferred
// callbacks the scheduler can hold.
const DefaultCapacity = 16

type slot struct {
	active      bool
	token       platform.Token
	executeTime keycode.Timestamp
	addOrder    uint32
	callback    platform.Callback
}

// Scheduler is a bounded, sorted queue of deferred callbacks. The zero
// value is not usable; construct with New.
type Scheduler struct {
	slots        []slot
	nextToken    platform.Token
	nextAddOrder uint32
}

// New constructs a Scheduler with room for capacity simultaneously pending
// callbacks.
func New(capacity int) *Scheduler {
	return &Scheduler{
		slots:     make([]slot, capacity),
		nextToken: 1, // 0 is platform.InvalidToken
	}
}

// Defer schedules fn to run once Tick observes now.AtOrAfter(scheduled
// execute time). It returns platform.InvalidToken if every slot is
// occupied (spec §7, SchedulerFull).
func (s *Scheduler) Defer(now keycode.Timestamp, delayMs uint32, fn platform.Callback) platform.Token {
	idx := s.findEmptySlot()
	if idx < 0 {
		return platform.InvalidToken
	}

	token := s.nextToken
	s.nextToken++
	if s.nextToken == platform.InvalidToken {
		s.nextToken = 1
	}

	s.slots[idx] = slot{
		active:      true,
		token:       token,
		executeTime: now.Add(delayMs),
		addOrder:    s.nextAddOrder,
		callback:    fn,
	}
	s.nextAddOrder++

	s.sort()
	return token
}

// Cancel cancels a previously scheduled callback. Returns false if token is
// invalid, unknown, or already fired.
func (s *Scheduler) Cancel(token platform.Token) bool {
	idx := s.findByToken(token)
	if idx < 0 {
		return false
	}
	s.slots[idx] = slot{}
	return true
}

// Tick runs every callback whose execute time is at or before now, in
// (execute time, arrival order) order, then removes it. Because the slots
// are kept sorted, Tick stops at the first still-pending entry rather than
// scanning the full array.
func (s *Scheduler) Tick(now keycode.Timestamp) {
	for i := range s.slots {
		if !s.slots[i].active {
			continue
		}
		if !now.AtOrAfter(s.slots[i].executeTime) {
			break
		}
		cb := s.slots[i].callback
		s.slots[i] = slot{}
		cb()
	}
}

// Pending reports how many callbacks are currently scheduled.
func (s *Scheduler) Pending() int {
	count := 0
	for _, sl := range s.slots {
		if sl.active {
			count++
		}
	}
	return count
}

func (s *Scheduler) findEmptySlot() int {
	for i, sl := range s.slots {
		if !sl.active {
			return i
		}
	}
	return -1
}

func (s *Scheduler) findByToken(token platform.Token) int {
	if token == platform.InvalidToken {
		return -1
	}
	for i, sl := range s.slots {
		if sl.active && sl.token == token {
			return i
		}
	}
	return -1
}

func (s *Scheduler) sort() {
	sort.SliceStable(s.slots, func(i, j int) bool {
		a, b := s.slots[i], s.slots[j]
		if a.active != b.active {
			return a.active // active slots sort before empty ones
		}
		if !a.active {
			return false
		}
		if a.executeTime != b.executeTime {
			return b.executeTime.After(a.executeTime)
		}
		return a.addOrder < b.addOrder
	})
}
