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

// Package ttyplatform implements a platform.Platform backed by a real
// terminal: raw keystrokes typed at the tty stand in for matrix presses
// (a full matrix scanner being out of scope for a demo), and every
// Register/Unregister/SendReport call is rendered back to the same
// terminal as a status line, the way a keyboard's host report would
// otherwise vanish into a USB endpoint.
package ttyplatform

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sys/unix"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	gdencoding "github.com/gdamore/encoding"

	"github.com/pkg/term"

	"github.com/soycabanillas/monkeyboard/keycode"
	"github.com/soycabanillas/monkeyboard/platform"
)

// selectDecoder picks the byte-to-rune transform for non-UTF-8, non-ASCII
// input bytes based on $LANG, mirroring tscreen.go's charset-keyed decoder
// selection (there driven by terminfo, here by locale since a raw tty has
// no terminfo database to consult).
func selectDecoder() transform.Transformer {
	lang := strings.ToUpper(os.Getenv("LANG"))
	switch {
	case strings.Contains(lang, "ISO-8859-1"), strings.Contains(lang, "ISO8859-1"):
		return charmap.ISO8859_1.NewDecoder()
	default:
		// CP437 covers plain ASCII identically and is the traditional
		// default codepage for a tty with no locale set.
		return gdencoding.CP437.NewDecoder()
	}
}

// KeyEvent is one decoded matrix event read from the terminal.
type KeyEvent struct {
	Position keycode.Position
	Press    bool
}

// Platform drives the pipeline core from a real tty: Clock is backed by
// wall-clock time and time.AfterFunc, Layout is a static in-memory keymap
// plus layer stack, and HostReport renders to the tty itself.
type Platform struct {
	mu sync.Mutex

	tty   *term.Term
	start time.Time

	keymap map[keycode.Layer]map[keycode.Position]keycode.Code
	layers []keycode.Layer

	tokens    map[platform.Token]*time.Timer
	nextToken platform.Token

	decoder transform.Transformer

	events chan KeyEvent
	quit   chan struct{}

	pending bytes.Buffer
	held    []keycode.Code // current report contents, newest last
}

// runeKeys maps a decoded input rune to the matrix position it stands in
// for. A demo keymap is necessarily small; cmd/kbsim documents which keys
// this covers.
var runeKeys = map[rune]keycode.Position{}

// BindRuneKey registers the matrix position a literal input rune should be
// treated as pressing (and, one read later, releasing -- a terminal cannot
// report key-up separately from key-down).
func BindRuneKey(r rune, pos keycode.Position) {
	runeKeys[r] = pos
}

// New opens path (typically "/dev/tty") in raw mode and constructs a
// Platform whose layer-0 keymap is layer0.
func New(path string, layer0 map[keycode.Position]keycode.Code) (*Platform, error) {
	t, err := term.Open(path, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("ttyplatform: open %s: %w", path, err)
	}

	p := &Platform{
		tty:     t,
		start:   time.Now(),
		keymap:  map[keycode.Layer]map[keycode.Position]keycode.Code{0: layer0},
		layers:  []keycode.Layer{0},
		tokens:  make(map[platform.Token]*time.Timer),
		decoder: selectDecoder(),
		events:  make(chan KeyEvent, 32),
		quit:    make(chan struct{}),
	}
	go p.inputLoop()
	return p, nil
}

// Close restores the terminal's prior mode and stops the input loop.
func (p *Platform) Close() error {
	close(p.quit)
	p.mu.Lock()
	for _, timer := range p.tokens {
		timer.Stop()
	}
	p.mu.Unlock()
	if err := p.tty.Restore(); err != nil {
		p.tty.Close()
		return err
	}
	return p.tty.Close()
}

// Events returns the channel of decoded matrix events. cmd/kbsim's main
// loop ranges over this and calls pipeline.Executor.ProcessKey for each.
func (p *Platform) Events() <-chan KeyEvent { return p.events }

// WindowSize reports the terminal's current column and row count via
// TIOCGWINSZ, falling back to a conservative default if the ioctl fails
// (e.g. stdin has been redirected).
func (p *Platform) WindowSize() (cols, rows int) {
	ws, err := unix.IoctlGetWinsize(int(p.tty.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 80, 25
	}
	return int(ws.Col), int(ws.Row)
}

// SetLayer installs (or replaces) the keymap for layer.
func (p *Platform) SetLayer(layer keycode.Layer, keymap map[keycode.Position]keycode.Code) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keymap[layer] = keymap
}

// Now implements platform.Clock as milliseconds elapsed since the Platform
// was constructed.
func (p *Platform) Now() keycode.Timestamp {
	return keycode.Timestamp(time.Since(p.start).Milliseconds())
}

// Defer implements platform.Clock with a real OS timer: the bounded,
// fixed-slot scheduler the virtual testplatform.Platform and the firmware
// itself use is a correctness model for hardware with a single housekeeping
// tick; a real tty-backed demo has the Go runtime's timer wheel available
// and should use it directly, same as tcell reaches for time.After rather
// than hand-rolled polling once it no longer needs to be portable to
// bare-metal.
func (p *Platform) Defer(delayMs uint32, fn platform.Callback) platform.Token {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextToken++
	if p.nextToken == platform.InvalidToken {
		p.nextToken++
	}
	tok := p.nextToken

	p.tokens[tok] = time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() {
		p.mu.Lock()
		_, live := p.tokens[tok]
		delete(p.tokens, tok)
		p.mu.Unlock()
		if live {
			fn()
		}
	})
	return tok
}

// Cancel implements platform.Clock.
func (p *Platform) Cancel(token platform.Token) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	timer, ok := p.tokens[token]
	if !ok {
		return false
	}
	timer.Stop()
	delete(p.tokens, token)
	return true
}

// CurrentLayer implements platform.Layout.
func (p *Platform) CurrentLayer() keycode.Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layers[len(p.layers)-1]
}

// LayerStack returns a snapshot of the active layer stack, topmost last --
// the same order CurrentLayer reads from. Exposed so a caller (cmd/kbsim's
// indicator wiring) can resolve feedback that depends on more than just the
// topmost layer without reaching into Platform's internals.
func (p *Platform) LayerStack() []keycode.Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	stack := make([]keycode.Layer, len(p.layers))
	copy(stack, p.layers)
	return stack
}

// ActivateLayer implements platform.Layout.
func (p *Platform) ActivateLayer(layer keycode.Layer) {
	p.mu.Lock()
	p.layers = append(p.layers, layer)
	p.mu.Unlock()
}

// DeactivateLayer implements platform.Layout.
func (p *Platform) DeactivateLayer(layer keycode.Layer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.layers) - 1; i >= 0; i-- {
		if p.layers[i] == layer {
			p.layers = append(p.layers[:i], p.layers[i+1:]...)
			return
		}
	}
}

// KeycodeAt implements platform.Layout, falling back to layer 0 when layer
// has no binding at pos (spec §4.1 layer-shadowing semantics).
func (p *Platform) KeycodeAt(layer keycode.Layer, pos keycode.Position) keycode.Code {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.keymap[layer]; ok {
		if code, ok := m[pos]; ok {
			return code
		}
	}
	return p.keymap[0][pos]
}

// Register implements platform.HostReport.
func (p *Platform) Register(code keycode.Code) {
	p.mu.Lock()
	p.held = append(p.held, code)
	p.mu.Unlock()
}

// Unregister implements platform.HostReport.
func (p *Platform) Unregister(code keycode.Code) {
	p.mu.Lock()
	for i := len(p.held) - 1; i >= 0; i-- {
		if p.held[i] == code {
			p.held = append(p.held[:i], p.held[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
}

// SendReport renders the currently held codes as a status line written
// back to the tty. The report is ASCII by construction (keycode names are
// always printable ASCII), so the transform.Transformer is only exercised
// on the read side; the status line is written without any encoding step.
func (p *Platform) SendReport() {
	p.mu.Lock()
	line := fmt.Sprintf("\r\x1b[K> held: %v", p.held)
	p.mu.Unlock()
	_, _ = io.WriteString(p.tty, line)
}

// inputLoop mirrors the teacher's scanInput/inputLoop split: read whatever
// bytes are available, run them through the charset decoder, and turn each
// decoded rune into a press immediately followed by a release, since a bare
// terminal cannot distinguish key-down from key-up on its own.
func (p *Platform) inputLoop() {
	chunk := make([]byte, 64)
	utfb := make([]byte, 64)
	for {
		select {
		case <-p.quit:
			return
		default:
		}
		n, err := p.tty.Read(chunk)
		if err != nil {
			if err == io.EOF {
				continue
			}
			return
		}
		p.pending.Write(chunk[:n])

		for p.pending.Len() > 0 {
			b := p.pending.Bytes()
			if b[0] < 0x80 {
				r := rune(b[0])
				p.pending.Next(1)
				p.emitRune(r)
				continue
			}
			if utf8.FullRune(b) {
				r, size := utf8.DecodeRune(b)
				p.pending.Next(size)
				p.emitRune(r)
				continue
			}
			p.decoder.Reset()
			nout, nin, terr := p.decoder.Transform(utfb, b, true)
			if terr != nil || nout == 0 {
				p.pending.Next(1) // undecodable byte, drop it
				continue
			}
			r, _ := utf8.DecodeRune(utfb[:nout])
			p.pending.Next(nin)
			p.emitRune(r)
		}
	}
}

func (p *Platform) emitRune(r rune) {
	pos, ok := runeKeys[r]
	if !ok {
		return
	}
	select {
	case p.events <- KeyEvent{Position: pos, Press: true}:
	case <-p.quit:
		return
	}
	select {
	case p.events <- KeyEvent{Position: pos, Press: false}:
	case <-p.quit:
	}
}

