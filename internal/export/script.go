/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a dialogue table as a printable script.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"godialogue/internal/node"
	"godialogue/internal/table"
)

// ScriptOptions controls the script printout. Units are points.
type ScriptOptions struct {
	Title string
	// FontFile is an optional UTF-8 TTF used instead of the built-in
	// Helvetica, needed for scripts outside the Latin-1 range.
	FontFile string
	// Swatches draws a color sample next to nodes with a valid color code.
	Swatches bool
}

const (
	pageW  = 595.0 // A4
	pageH  = 842.0
	margin = 48.0
)

// ScriptPDF writes the table to outPath as one entry per node in natural id
// order.
func ScriptPDF(tbl *table.Table, outPath string, opt ScriptOptions) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := WriteScriptPDF(tbl, f, opt); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteScriptPDF is ScriptPDF writing to w.
func WriteScriptPDF(tbl *table.Table, w io.Writer, opt ScriptOptions) error {
	if tbl == nil {
		return errors.New("table is nil")
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	title := opt.Title
	if title == "" {
		title = "Dialogue Script"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("GoDialogue", false)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opt.FontFile != "" {
		family = "script"
		pdf.AddUTF8Font(family, "", opt.FontFile)
		pdf.AddUTF8Font(family, "B", opt.FontFile)
		tr = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", 18)
	pdf.CellFormat(0, 24, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 14, fmt.Sprintf("%d nodes", tbl.Len()), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	width := pageW - 2*margin
	for _, row := range tbl.Ordered() {
		field := func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}
		y := pdf.GetY()
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(family, "B", 11)
		pdf.CellFormat(width-24, 16, tr(row.ID()), "", 0, "L", false, 0, "")
		if opt.Swatches {
			if c, err := node.ParseColor(field(node.ColColor)); err == nil {
				pdf.SetFillColor(int(c.R*255+0.5), int(c.G*255+0.5), int(c.B*255+0.5))
				pdf.SetDrawColor(0, 0, 0)
				pdf.Rect(pageW-margin-14, y+2, 12, 12, "FD")
			}
		}
		pdf.Ln(16)

		pdf.SetFont(family, "", 11)
		pdf.MultiCell(width, 14, tr(field(node.ColText)), "", "L", false)

		var meta []string
		if s := field(node.ColImage); s != "" {
			meta = append(meta, "image: "+s)
		}
		if s := field(node.ColAudio); s != "" {
			meta = append(meta, "audio: "+s)
		}
		if s := field(node.ColNext); s != "" {
			meta = append(meta, "next: "+s)
		} else {
			meta = append(meta, "end")
		}
		pdf.SetFont(family, "", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.MultiCell(width, 10, tr(strings.Join(meta, "  |  ")), "", "L", false)
		pdf.Ln(6)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
