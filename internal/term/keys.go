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
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Confirmer receives the reader's confirmations.
type Confirmer interface {
	Confirm() bool
}

// Key is a confirm binding: a special key or a rune.
type Key struct {
	Code tcell.Key
	Rune rune
}

// DefaultConfirmKeys are Enter and z.
var DefaultConfirmKeys = []Key{{Code: tcell.KeyEnter}, {Code: tcell.KeyRune, Rune: 'z'}}

// ParseKeys reads bindings like "enter", "space" or a single character.
func ParseKeys(names []string) ([]Key, error) {
	if len(names) == 0 {
		return DefaultConfirmKeys, nil
	}
	keys := make([]Key, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "enter", "return":
			keys = append(keys, Key{Code: tcell.KeyEnter})
		case "space":
			keys = append(keys, Key{Code: tcell.KeyRune, Rune: ' '})
		case "tab":
			keys = append(keys, Key{Code: tcell.KeyTab})
		default:
			if utf8.RuneCountInString(n) != 1 {
				return nil, fmt.Errorf("unknown confirm key %q", n)
			}
			r, _ := utf8.DecodeRuneInString(n)
			keys = append(keys, Key{Code: tcell.KeyRune, Rune: r})
		}
	}
	return keys, nil
}

func (k Key) matches(ev *tcell.EventKey) bool {
	if ev.Key() != k.Code {
		return false
	}
	return k.Code != tcell.KeyRune || ev.Rune() == k.Rune
}

// PumpKeys reads terminal events until ctx ends or the screen is finalized.
// A confirm key finishes a running reveal first and confirms otherwise. Esc
// and Ctrl-C call cancel.
func (s *Screen) PumpKeys(ctx context.Context, gate Confirmer, keys []Key, cancel context.CancelFunc) {
	if len(keys) == 0 {
		keys = DefaultConfirmKeys
	}
	events := make(chan tcell.Event, 16)
	go func() {
		defer close(events)
		for {
			ev := s.scr.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				s.scr.Sync()
				s.draw()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					cancel()
					return
				}
				for _, k := range keys {
					if k.matches(ev) {
						if !s.Skip() {
							gate.Confirm()
						}
						break
					}
				}
			}
		}
	}
}
