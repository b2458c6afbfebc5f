/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package table

import (
	"strings"
	"unicode/utf8"
)

// SplitRow splits one line of the script into trimmed fields.
//
// Commas inside parenthesis groups do not split, so a color code like
// "(255,0,0,100)" stays one field. A backslash keeps the next character
// verbatim and drops itself. Field bytes are kept as they are, including
// invalid UTF-8. Unbalanced parentheses and a trailing backslash are reported
// as *ParseError with Line left at 0 for the caller to fill in; Column counts
// runes.
func SplitRow(line string) ([]string, error) {
	var (
		fields []string
		b      strings.Builder
		depth  int
		open   int // byte offset of the outermost unclosed '(' for diagnostics
	)
	col := func(i int) int { return utf8.RuneCountInString(line[:i]) + 1 }
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\':
			if i+1 >= len(line) {
				return nil, &ParseError{Column: col(i), Message: "dangling escape at end of line"}
			}
			_, size := utf8.DecodeRuneInString(line[i+1:])
			b.WriteString(line[i+1 : i+1+size])
			i += size
		case c == ',' && depth == 0:
			fields = append(fields, strings.TrimSpace(b.String()))
			b.Reset()
		case c == '(':
			if depth == 0 {
				open = i
			}
			depth++
			b.WriteByte(c)
		case c == ')':
			depth--
			if depth < 0 {
				return nil, &ParseError{Column: col(i), Message: "unbalanced ')'"}
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	if depth > 0 {
		return nil, &ParseError{Column: col(open), Message: "unclosed '('"}
	}
	fields = append(fields, strings.TrimSpace(b.String()))
	return fields, nil
}
