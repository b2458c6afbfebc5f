/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package player runs dialogue sessions: it walks a chain of nodes from a
// start id, presenting each one through the collaborators and waiting for the
// reader's confirmation before advancing. One session may be active per Player.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"

	"godialogue/internal/assets"
	applog "godialogue/internal/log"
	"godialogue/internal/node"
	"godialogue/internal/table"
)

// ErrSessionActive rejects a Start while another session runs.
var ErrSessionActive = errors.New("player: dialogue session already active")

// PanicError is the session outcome when a collaborator or the look-ahead
// panics. The session still unwinds to Idle.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("player: session panic: %v", e.Value) }

// guard runs fn and turns a panic into a *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// TextPresenter reveals text and closes the returned channel when the reveal
// is complete or ctx ends.
type TextPresenter interface {
	Reveal(ctx context.Context, text string) <-chan struct{}
}

type ImagePresenter interface {
	SetImage(r *assets.Resource)
}

type BackgroundPresenter interface {
	SetColor(c node.Color)
}

type AudioPresenter interface {
	Play(s *node.Sound)
}

// InputGate grants or revokes the reader's permission to confirm. Values on
// Confirmations are only expected while permission is granted.
type InputGate interface {
	SetPermission(open bool)
	Confirmations() <-chan struct{}
}

// SessionHost shows the presentation surface at session start and hides it at
// the end.
type SessionHost interface {
	Show(visible bool)
}

// Collaborators are the presentation side of a Player. Input is required;
// a nil Text reveals instantly and other nil presenters are skipped.
type Collaborators struct {
	Text       TextPresenter
	Image      ImagePresenter
	Background BackgroundPresenter
	Audio      AudioPresenter
	Input      InputGate
	Host       SessionHost
}

type Options struct {
	// Localize rewrites the start id before lookup.
	Localize func(id string) string
	// ReleaseTable drops the cached table when a session ends.
	ReleaseTable bool
	// OnState is called synchronously on every state change.
	OnState func(State)
}

type Player struct {
	cache  *table.Cache
	loader assets.Loader
	c      Collaborators
	opts   Options

	active atomic.Bool
	state  atomic.Int32
}

func New(cache *table.Cache, loader assets.Loader, c Collaborators, opts Options) (*Player, error) {
	if cache == nil {
		return nil, errors.New("player: table cache is required")
	}
	if c.Input == nil {
		return nil, errors.New("player: input gate is required")
	}
	return &Player{cache: cache, loader: loader, c: c, opts: opts}, nil
}

// Active reports whether a session is running.
func (p *Player) Active() bool { return p.active.Load() }

func (p *Player) State() State { return State(p.state.Load()) }

func (p *Player) setState(s State) {
	p.state.Store(int32(s))
	if p.opts.OnState != nil {
		p.opts.OnState(s)
	}
}

// Start begins a session at id and returns a channel that receives the
// session outcome once it is back to Idle. A second Start while a session is
// active fails with ErrSessionActive and leaves the running session alone.
func (p *Player) Start(ctx context.Context, id string) (<-chan error, error) {
	l := applog.WithOperation(applog.WithComponent("player"), "start")
	if !p.active.CompareAndSwap(false, true) {
		l.Warn("dialogue already playing", slog.String("id", id))
		return nil, ErrSessionActive
	}
	if p.opts.Localize != nil {
		id = p.opts.Localize(id)
	}
	s := &session{
		p:     p,
		start: id,
		log:   applog.WithSession(applog.WithComponent("player"), uuid.NewString()),
	}
	done := make(chan error, 1)
	go func() {
		err := guard(func() error { return s.run(ctx) })
		if pe := (*PanicError)(nil); errors.As(err, &pe) {
			s.log.Error("session panic", slog.Any("panic", pe.Value), slog.String("stack", string(pe.Stack)))
		}
		if p.opts.ReleaseTable {
			p.cache.Release()
		}
		p.setState(Idle)
		p.active.Store(false)
		done <- err
		close(done)
	}()
	return done, nil
}

// Play runs a session to completion.
func (p *Player) Play(ctx context.Context, id string) error {
	done, err := p.Start(ctx, id)
	if err != nil {
		return err
	}
	return <-done
}
