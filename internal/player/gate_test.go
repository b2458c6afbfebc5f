/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package player

import "testing"

func TestGateIgnoresClosedConfirmations(t *testing.T) {
	g := NewGate()
	if g.Confirm() {
		t.Fatalf("Confirm accepted on closed gate")
	}
	select {
	case <-g.Confirmations():
		t.Fatalf("closed-gate confirmation was queued")
	default:
	}

	g.SetPermission(true)
	if !g.Confirm() || !g.Confirm() {
		t.Fatalf("Confirm rejected on open gate")
	}
	<-g.Confirmations()
	select {
	case <-g.Confirmations():
		t.Fatalf("more than one confirmation buffered")
	default:
	}
}

func TestGateCloseDrains(t *testing.T) {
	g := NewGate()
	g.SetPermission(true)
	g.Confirm()
	g.SetPermission(false)
	if g.Open() {
		t.Fatalf("gate still open")
	}
	select {
	case <-g.Confirmations():
		t.Fatalf("pending confirmation survived close")
	default:
	}
}

func TestStateString(t *testing.T) {
	if Idle.String() != "idle" || AwaitingConfirmation.String() != "awaiting_confirmation" || State(99).String() != "unknown" {
		t.Fatalf("unexpected state names")
	}
}
