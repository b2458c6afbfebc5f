/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package node

import (
	"errors"
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestParseColor(t *testing.T) {
	c, err := ParseColor("(255,128,0,100)")
	if err != nil {
		t.Fatalf("ParseColor error: %v", err)
	}
	want := Color{R: 1, G: 0.502, B: 0, A: 1}
	if !near(c.R, want.R) || !near(c.G, want.G) || !near(c.B, want.B) || !near(c.A, want.A) {
		t.Fatalf("ParseColor = %+v, want %+v", c, want)
	}
}

func TestParseColorTolerant(t *testing.T) {
	cases := map[string]Color{
		" ( 0, 0 ,255 , 50 ) ": {0, 0, 1, 0.5},
		"r51,g102,b153,a0":     {0.2, 0.4, 0.6, 0},
		"(-5,0,0,100)":         {5.0 / 255, 0, 0, 1},
		"((10)),0,0,100":       {10.0 / 255, 0, 0, 1},
	}
	for in, want := range cases {
		c, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q) error: %v", in, err)
		}
		if !near(c.R, want.R) || !near(c.G, want.G) || !near(c.B, want.B) || !near(c.A, want.A) {
			t.Fatalf("ParseColor(%q) = %+v, want %+v", in, c, want)
		}
	}
}

func TestParseColorRejects(t *testing.T) {
	for _, in := range []string{
		"(300,0,0,0)",
		"(0,0,0,101)",
		"(1,2,3)",
		"(1,2,3,4,5)",
		"(1,x,3,4)",
		"",
		"(99999999999999999999999,0,0,0)",
	} {
		c, err := ParseColor(in)
		if !errors.Is(err, ErrColorFormat) {
			t.Fatalf("ParseColor(%q) err = %v, want ErrColorFormat", in, err)
		}
		if c != (Color{}) {
			t.Fatalf("ParseColor(%q) returned partial color %+v", in, c)
		}
	}
}
