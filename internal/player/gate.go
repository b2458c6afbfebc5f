/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package player

import "sync"

// Gate is an InputGate fed by an input source through Confirm. Confirmations
// are only accepted while permission is granted; at most one is buffered.
type Gate struct {
	mu   sync.Mutex
	open bool
	ch   chan struct{}
}

func NewGate() *Gate { return &Gate{ch: make(chan struct{}, 1)} }

// SetPermission opens or closes the gate. Closing discards a pending
// confirmation.
func (g *Gate) SetPermission(open bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = open
	if !open {
		select {
		case <-g.ch:
		default:
		}
	}
}

// Open reports whether confirmations are currently accepted.
func (g *Gate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Confirm signals a confirmation and reports whether it was accepted.
func (g *Gate) Confirm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		return false
	}
	select {
	case g.ch <- struct{}{}:
	default:
	}
	return true
}

func (g *Gate) Confirmations() <-chan struct{} { return g.ch }
