/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package table

import (
	"errors"
	"slices"
	"strings"
)

// Row is one record of the script; column 0 is the node id.
type Row []string

// ID returns column 0, or "" for an empty row.
func (r Row) ID() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Table is the parsed script plus its natural-order index.
// It is immutable after Build; concurrent lookups need no locking.
type Table struct {
	rows  []Row
	order []int
	cols  int
}

// Build parses the whole script. The first non-empty line is a header and is
// skipped. Any malformed line or column-count mismatch fails the entire build;
// no partial table is returned.
func Build(text string) (*Table, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	t := &Table{}
	header := true
	for n, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		fields, err := SplitRow(line)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = n + 1
			}
			return nil, err
		}
		if t.cols == 0 {
			t.cols = len(fields)
		} else if len(fields) != t.cols {
			return nil, &CorruptError{Line: n + 1, Want: t.cols, Got: len(fields)}
		}
		t.rows = append(t.rows, Row(fields))
	}
	if header {
		return nil, &ParseError{Line: 1, Column: 1, Message: "missing header line"}
	}

	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.ID()
	}
	t.order = SortIndex(ids)
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Columns returns the uniform column count (0 for an empty table).
func (t *Table) Columns() int {
	if t == nil {
		return 0
	}
	return t.cols
}

// Rows returns copies of all rows in source order.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Ordered returns copies of all rows in natural id order.
func (t *Table) Ordered() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, len(t.order))
	for i, p := range t.order {
		out[i] = slices.Clone(t.rows[p])
	}
	return out
}

// Lookup resolves id by binary search over the natural-order index.
// It returns a copy of the row so callers cannot mutate the table.
func (t *Table) Lookup(id string) (Row, error) {
	if t == nil {
		return nil, ErrNotReady
	}
	lo, hi := 0, len(t.order)-1
	for lo <= hi {
		m := lo + (hi-lo)/2
		row := t.rows[t.order[m]]
		switch c := Compare(row.ID(), id); {
		case c == 0:
			return slices.Clone(row), nil
		case c < 0:
			lo = m + 1
		default:
			hi = m - 1
		}
	}
	return nil, &NotFoundError{ID: id}
}
