/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package term presents dialogue sessions on a terminal through tcell: the
// text box with a typewriter reveal, a half-block portrait, the background
// color and a sound status line.
package term

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tanema/gween/ease"

	"godialogue/internal/assets"
	applog "godialogue/internal/log"
	"godialogue/internal/node"
)

type Options struct {
	// RuneDelay is the reveal time per rune; zero reveals instantly.
	RuneDelay time.Duration
	// Ease shapes the reveal progress, ease.Linear when nil.
	Ease ease.TweenFunc
	// Base is the color the node background blends over by its alpha.
	Base colorful.Color
	// PortraitCols is the portrait width in cells.
	PortraitCols int
}

// Screen implements the player's presenters and session host on a tcell
// screen. It is safe for concurrent use.
type Screen struct {
	scr  tcell.Screen
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	visible   bool
	text      []rune
	shown     int
	revealing bool
	skip      chan struct{}
	bg        tcell.Color
	portrait  [][2]tcell.Color
	pw, ph    int
	status    string
}

// New wraps an initialized tcell screen.
func New(scr tcell.Screen, opts Options) *Screen {
	if opts.Ease == nil {
		opts.Ease = ease.Linear
	}
	if opts.PortraitCols <= 0 {
		opts.PortraitCols = 24
	}
	return &Screen{
		scr:  scr,
		opts: opts,
		log:  applog.WithComponent("term"),
		bg:   tcell.ColorDefault,
	}
}

// Show toggles the dialogue surface. Hiding clears the node state.
func (s *Screen) Show(visible bool) {
	s.mu.Lock()
	s.visible = visible
	if !visible {
		s.text, s.shown, s.status = nil, 0, ""
		s.portrait, s.pw, s.ph = nil, 0, 0
		s.bg = tcell.ColorDefault
	}
	s.mu.Unlock()
	s.draw()
}

// SetColor blends c over the base color by its alpha and paints the background.
func (s *Screen) SetColor(c node.Color) {
	blended := s.opts.Base.BlendRgb(colorful.Color{R: c.R, G: c.G, B: c.B}, c.A).Clamped()
	r, g, b := blended.RGB255()
	s.mu.Lock()
	s.bg = tcell.NewRGBColor(int32(r), int32(g), int32(b))
	s.mu.Unlock()
	s.draw()
}

// SetImage shows r as the portrait. Undecodable images clear it.
func (s *Screen) SetImage(r *assets.Resource) {
	cells, w, h, err := portraitCells(r.Data, s.opts.PortraitCols)
	if err != nil {
		s.log.Warn("portrait decode failed", slog.String("key", r.Key), slog.Any("err", err))
	}
	s.mu.Lock()
	s.portrait, s.pw, s.ph = cells, w, h
	s.mu.Unlock()
	s.draw()
}

// Play shows the sound on the status line; clip playback is not available
// on a terminal.
func (s *Screen) Play(snd *node.Sound) {
	status := "♪ " + snd.FileName
	if snd.ClipType == node.ClipLoop {
		status += " (loop)"
	}
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.draw()
}

// Revealing reports whether a text reveal is in progress.
func (s *Screen) Revealing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealing
}

func (s *Screen) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scr.Clear()
	if !s.visible {
		s.scr.Show()
		return
	}
	w, h := s.scr.Size()
	base := tcell.StyleDefault.Background(s.bg)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s.scr.SetContent(x, y, ' ', nil, base)
		}
	}

	for y := 0; y < s.ph && y+1 < h; y++ {
		for x := 0; x < s.pw && x+1 < w; x++ {
			px := s.portrait[y*s.pw+x]
			s.scr.SetContent(x+1, y+1, '▀', nil, tcell.StyleDefault.Foreground(px[0]).Background(px[1]))
		}
	}

	box := 4
	top := h - box - 2
	if top < 0 {
		top = 0
	}
	border := base.Foreground(tcell.ColorGray)
	for x := 0; x < w; x++ {
		s.scr.SetContent(x, top, '─', nil, border)
	}
	textStyle := base.Foreground(tcell.ColorWhite)
	for i, line := range wrap(string(s.text[:s.shown]), w-2) {
		if i >= box || top+1+i >= h {
			break
		}
		putText(s.scr, 1, top+1+i, line, textStyle)
	}
	if s.status != "" && h > 0 {
		putText(s.scr, 1, h-1, s.status, base.Foreground(tcell.ColorYellow))
	}
	s.scr.Show()
}

// putText writes s at (x, y), advancing by each rune's cell width and
// stopping at the right edge.
func putText(scr tcell.Screen, x, y int, s string, st tcell.Style) {
	sw, _ := scr.Size()
	for _, r := range s {
		rw := runeWidth(r)
		if x+rw > sw {
			break
		}
		scr.SetContent(x, y, r, nil, st)
		x += rw
	}
}
