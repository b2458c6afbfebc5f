/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package table

import (
	"cmp"
	"log/slog"
	"strconv"
	"strings"

	applog "godialogue/internal/log"
)

// Compare orders node ids naturally: embedded digit runs compare by numeric
// value, everything else byte-wise, so "scene2_9" sorts before "scene2_10".
// It returns -1, 0 or +1 and is 0 only for identical strings; ids that are
// naturally equal but spelled differently ("a01", "a1") fall back to byte order.
func Compare(a, b string) int {
	if c := natural(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func natural(a, b string) int {
	fa, fb := a, b
	for {
		i := 0
		for i < len(a) && i < len(b) && a[i] == b[i] && !isDigit(a[i]) {
			i++
		}
		if i >= len(a) || i >= len(b) {
			return cmp.Compare(len(a), len(b))
		}
		if !isDigit(a[i]) || !isDigit(b[i]) {
			return strings.Compare(a[i:], b[i:])
		}
		e1, e2 := digitEnd(a, i), digitEnd(b, i)
		n1, err1 := strconv.ParseUint(a[i:e1], 10, 64)
		n2, err2 := strconv.ParseUint(b[i:e2], 10, 64)
		if err1 != nil || err2 != nil {
			applog.WithOperation(applog.WithComponent("table"), "compare").Warn("digit run out of range, using byte order",
				slog.String("a", fa), slog.String("b", fb))
			return strings.Compare(fa, fb)
		}
		if n1 != n2 {
			return cmp.Compare(n1, n2)
		}
		a, b = a[e1:], b[e2:]
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digitEnd(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}
