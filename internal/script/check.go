/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script checks a dialogue table as a whole: chains that point to
// missing nodes, chains that never end and ids that shadow each other.
package script

import (
	"fmt"
	"strings"

	"godialogue/internal/node"
	"godialogue/internal/table"
)

// IssueKind classifies a finding.
type IssueKind int

const (
	IssueDangling IssueKind = iota + 1
	IssueCycle
	IssueDuplicate
	IssueShortRow
)

func (k IssueKind) String() string {
	switch k {
	case IssueDangling:
		return "dangling"
	case IssueCycle:
		return "cycle"
	case IssueDuplicate:
		return "duplicate"
	case IssueShortRow:
		return "short-row"
	default:
		return "unknown"
	}
}

// Issue is one finding. Path lists the ids of a cycle in visiting order.
type Issue struct {
	Kind    IssueKind
	ID      string
	Message string
	Path    []string
}

func (i Issue) String() string { return fmt.Sprintf("%s %s: %s", i.Kind, i.ID, i.Message) }

// Report summarizes a table.
type Report struct {
	Columns int
	Rows    int
	// Entries are ids no other node points to, in natural order.
	Entries []string
	// Terminals are ids with an empty next id, in natural order.
	Terminals []string
	Issues    []Issue
}

// OK reports whether the table has no issues.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Check analyses tbl.
func Check(tbl *table.Table) Report {
	rep := Report{Columns: tbl.Columns(), Rows: tbl.Len()}
	rows := tbl.Ordered()
	if rep.Rows > 0 && rep.Columns < node.MinColumns {
		rep.Issues = append(rep.Issues, Issue{
			Kind:    IssueShortRow,
			Message: fmt.Sprintf("table has %d columns, nodes need %d", rep.Columns, node.MinColumns),
		})
		return rep
	}

	next := make(map[string]string, len(rows))
	referenced := map[string]bool{}
	for i, row := range rows {
		id := row.ID()
		if i > 0 && rows[i-1].ID() == id {
			rep.Issues = append(rep.Issues, Issue{Kind: IssueDuplicate, ID: id, Message: "id appears more than once; only one row is reachable"})
			continue
		}
		nx := row[node.ColNext]
		next[id] = nx
		if nx == "" {
			rep.Terminals = append(rep.Terminals, id)
			continue
		}
		referenced[nx] = true
		if _, err := tbl.Lookup(nx); err != nil {
			rep.Issues = append(rep.Issues, Issue{Kind: IssueDangling, ID: id, Message: fmt.Sprintf("next id %q does not exist", nx)})
		}
	}
	for _, row := range rows {
		id := row.ID()
		if !referenced[id] && (len(rep.Entries) == 0 || rep.Entries[len(rep.Entries)-1] != id) {
			rep.Entries = append(rep.Entries, id)
		}
	}

	const (
		unseen = iota
		onPath
		finished
	)
	state := make(map[string]int, len(next))
	for _, row := range rows {
		start := row.ID()
		if state[start] != unseen {
			continue
		}
		var path []string
		cur := start
		for {
			if _, ok := next[cur]; !ok || state[cur] == finished {
				break
			}
			if state[cur] == onPath {
				at := indexOf(path, cur)
				cycle := append([]string(nil), path[at:]...)
				rep.Issues = append(rep.Issues, Issue{
					Kind:    IssueCycle,
					ID:      cur,
					Message: "dialogue never ends: " + strings.Join(append(cycle, cur), " -> "),
					Path:    cycle,
				})
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			if next[cur] == "" {
				break
			}
			cur = next[cur]
		}
		for _, id := range path {
			state[id] = finished
		}
	}
	return rep
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
