/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package table turns the raw dialogue script (comma separated, one node per line)
// into an immutable row matrix and a natural-order index over the node ids.
//
// Column layout of a dialogue table:
//
//	0 id, 1 text, 2 image key, 3 audio key, 4 next id, 5 color code
//
// The first line of the source is a header and is discarded.
package table

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks a malformed line (unbalanced parentheses, dangling escape).
	ErrParse = errors.New("table: parse error")
	// ErrTableCorrupt marks a row whose field count differs from the first data row.
	ErrTableCorrupt = errors.New("table: corrupt")
	// ErrNotReady is returned by lookups on a table that was never built or failed to build.
	ErrNotReady = errors.New("table: not ready")
	// ErrIDNotFound is returned when no row carries the requested id.
	ErrIDNotFound = errors.New("table: id not found")
)

// ParseError represents a row parse error with position context.
// Line is 1-based in the source blob (header included); Column is 1-based.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("table: line %d col %d: %s", e.Line, e.Column, e.Message)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// CorruptError reports a column-count mismatch.
type CorruptError struct {
	Line int
	Want int
	Got  int
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("table: corrupt at line %d: %d columns, want %d", e.Line, e.Got, e.Want)
}

func (e *CorruptError) Is(target error) bool { return target == ErrTableCorrupt }

// NotFoundError carries the id that could not be resolved.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("table: no row with id %q", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrIDNotFound }
