/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package term

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

func runeWidth(r rune) int {
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

// wrap breaks s into lines of at most width cells, splitting at spaces and
// hard-breaking words that do not fit on a line of their own.
func wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var (
			line strings.Builder
			lw   int
		)
		flush := func() {
			lines = append(lines, line.String())
			line.Reset()
			lw = 0
		}
		for _, word := range strings.Fields(para) {
			ww := runewidth.StringWidth(word)
			if lw > 0 && lw+1+ww > width {
				flush()
			}
			if lw > 0 {
				line.WriteByte(' ')
				lw++
			}
			for _, r := range word {
				rw := runeWidth(r)
				if lw+rw > width && lw > 0 {
					flush()
				}
				line.WriteRune(r)
				lw += rw
			}
		}
		flush()
	}
	return lines
}
