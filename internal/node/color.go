/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package node

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a normalized RGBA value, every channel in [0,1].
type Color struct {
	R, G, B, A float64
}

// ParseColor reads a "(r,g,b,a)" color code with r, g, b in [0,255] and a in
// [0,100]. Parentheses anywhere are ignored and each channel takes the first
// run of decimal digits it contains, so "( r255, 0 ,0,100)" is accepted. A
// channel without digits or a value out of range fails the whole color.
func ParseColor(s string) (Color, error) {
	clean := strings.NewReplacer("(", "", ")", "").Replace(s)
	parts := strings.Split(clean, ",")
	if len(parts) != 4 {
		return Color{}, fmt.Errorf("%w: %q has %d channels, want 4", ErrColorFormat, s, len(parts))
	}
	var ch [4]float64
	for i, p := range parts {
		n, ok := firstNumber(p)
		if !ok {
			return Color{}, fmt.Errorf("%w: %q channel %d has no digits", ErrColorFormat, s, i)
		}
		div := 255.0
		if i == 3 {
			div = 100.0
		}
		v := float64(n) / div
		if v < 0 || v > 1 {
			return Color{}, fmt.Errorf("%w: %q channel %d out of range", ErrColorFormat, s, i)
		}
		ch[i] = v
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

func firstNumber(s string) (uint64, bool) {
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseUint(s[start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
