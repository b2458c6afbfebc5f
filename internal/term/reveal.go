/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package term

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tanema/gween"
)

const frame = 16 * time.Millisecond

// Reveal types text into the box over RuneDelay per rune and closes the
// returned channel when all of it is visible. Skip or a done ctx finish the
// reveal early.
func (s *Screen) Reveal(ctx context.Context, text string) <-chan struct{} {
	done := make(chan struct{})
	runes := []rune(text)
	skip := make(chan struct{})

	s.mu.Lock()
	s.text, s.shown = runes, 0
	s.skip = skip
	s.revealing = true
	s.mu.Unlock()

	var closeOnce sync.Once
	finish := func() {
		defer closeOnce.Do(func() { close(done) })
		s.mu.Lock()
		if s.skip == skip {
			s.shown = len(runes)
			s.revealing = false
			s.skip = nil
		}
		s.mu.Unlock()
		s.draw()
	}

	if len(runes) == 0 || s.opts.RuneDelay <= 0 {
		finish()
		return done
	}

	total := s.opts.RuneDelay * time.Duration(len(runes))
	tw := gween.New(0, float32(len(runes)), float32(total.Seconds()), s.opts.Ease)
	go func() {
		// a failed reveal still completes so the session can go on
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("reveal panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
				closeOnce.Do(func() { close(done) })
			}
		}()
		defer finish()
		tick := time.NewTicker(frame)
		defer tick.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case <-skip:
				return
			case now := <-tick.C:
				v, finished := tw.Update(float32(now.Sub(last).Seconds()))
				last = now
				if finished {
					return
				}
				s.mu.Lock()
				if s.skip == skip {
					s.shown = min(int(v), len(runes))
				}
				s.mu.Unlock()
				s.draw()
			}
		}
	}()
	return done
}

// Skip completes the current reveal at once and reports whether one was
// running.
func (s *Screen) Skip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.revealing || s.skip == nil {
		return false
	}
	close(s.skip)
	s.revealing = false
	return true
}
