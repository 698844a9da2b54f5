// Copyright 2025 The Monkeyboard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package monkeyboard ties together the pipeline core (buffer, scheduler,
// pipeline, tapdance, combo, oneshot, keyreplacer) behind the platform
// interface. It exposes no symbols of its own beyond the sentinel errors
// below; configuration and wiring are left to a concrete platform package
// such as testplatform or ttyplatform.
package monkeyboard

import "errors"

// ErrBufferFull names the condition where a key-event buffer has no room
// left to admit an event without risking an unmatched release later (spec
// §7). The buffer package reports it with its own buffer.ErrBufferFull;
// this value is not returned by the core packages.
var ErrBufferFull = errors.New("monkeyboard: key event buffer full")

// ErrSchedulerFull names the condition where the deferred-callback
// scheduler has no free slot (spec §7). The scheduler reports it by
// returning platform.InvalidToken; this value is not returned by the core
// packages.
var ErrSchedulerFull = errors.New("monkeyboard: deferred callback scheduler full")

// ErrUnmatchedRelease marks a release event with no corresponding buffered
// press. Per spec §7 it is silently dropped by callers; it is exported so
// a platform implementation's own logging, if any, can report it.
var ErrUnmatchedRelease = errors.New("monkeyboard: release with no matching press")
