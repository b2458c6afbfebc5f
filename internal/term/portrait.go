/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package term

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gdamore/tcell/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// portraitCells decodes an image and scales it to cols cells wide. Each cell
// is drawn as an upper half block, so it carries two vertical pixels as a
// foreground/background pair.
func portraitCells(data []byte, cols int) ([][2]tcell.Color, int, int, error) {
	if len(data) == 0 {
		return nil, 0, 0, errors.New("empty image")
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return nil, 0, 0, errors.New("empty image")
	}
	w := cols
	if sb.Dx() < w {
		w = sb.Dx()
	}
	// terminal cells are about twice as tall as wide; two pixels per cell row
	px := w * sb.Dy() / sb.Dx()
	if px < 2 {
		px = 2
	}
	px += px % 2
	dst := image.NewRGBA(image.Rect(0, 0, w, px))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)

	h := px / 2
	cells := make([][2]tcell.Color, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cells[y*w+x] = [2]tcell.Color{
				rgbaColor(dst, x, 2*y),
				rgbaColor(dst, x, 2*y+1),
			}
		}
	}
	return cells, w, h, nil
}

func rgbaColor(img *image.RGBA, x, y int) tcell.Color {
	c := img.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
