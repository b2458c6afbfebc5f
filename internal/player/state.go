/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package player

// State is a phase of a playback session.
type State int32

const (
	Idle State = iota
	LoadingCurrent
	Presenting
	AwaitingTextCompletion
	AwaitingConfirmation
	Advancing
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingCurrent:
		return "loading_current"
	case Presenting:
		return "presenting"
	case AwaitingTextCompletion:
		return "awaiting_text"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Advancing:
		return "advancing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}
