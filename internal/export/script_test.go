/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"godialogue/internal/table"
)

const script = "id,text,image,audio,next,color\n" +
	"scene2_10,Later.,,,,\n" +
	"scene2_9,Café au lait?,portraits/alice,sfx/cup,scene2_10,(255,128,0,100)\n"

func TestScriptPDF_CreatesFile(t *testing.T) {
	tbl, err := table.Build(script)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out := filepath.Join(t.TempDir(), "exports", "script.pdf")
	if err := ScriptPDF(tbl, out, ScriptOptions{Title: "Test", Swatches: true}); err != nil {
		t.Fatalf("ScriptPDF error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(b) < 100 || !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf (%d bytes)", len(b))
	}
}

func TestWriteScriptPDF_Empty(t *testing.T) {
	tbl, err := table.Build("id,text,image,audio,next,color\n")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteScriptPDF(tbl, &buf, ScriptOptions{}); err != nil {
		t.Fatalf("WriteScriptPDF error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestWriteScriptPDF_NilTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScriptPDF(nil, &buf, ScriptOptions{}); err == nil {
		t.Fatalf("expected error for nil table")
	}
}
