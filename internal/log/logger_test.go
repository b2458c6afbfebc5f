/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// lastJSON decodes the last non-empty line of a JSON log stream.
func lastJSON(t *testing.T, b []byte) map[string]any {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log %q: %v", last, err)
	}
	return m
}

func TestInitConsoleWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Console: &buf})
	t.Cleanup(func() { Init(Options{Console: io.Discard}) })

	l := WithSession(WithComponent("player"), "s-42")
	l.Debug("hidden")
	l.InfoContext(ContextWithNode(context.Background(), "intro_en"), "presenting")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug record written at info level:\n%s", buf.String())
	}
	m := lastJSON(t, buf.Bytes())
	for k, want := range map[string]string{
		"app": "godialogue", "component": "player", "session": "s-42", "node": "intro_en", "msg": "presenting",
	} {
		if m[k] != want {
			t.Fatalf("%s = %v, want %q", k, m[k], want)
		}
	}
}

func TestInitConsoleWriterPretty(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Console: &buf})
	t.Cleanup(func() { Init(Options{Console: io.Discard}) })

	WithComponent("node").Info("skipped")
	WithComponent("node").Warn("color ignored", slog.String("code", "(1,2)"))

	out := buf.String()
	if strings.Contains(out, "skipped") {
		t.Fatalf("info record written at warn level:\n%s", out)
	}
	if !strings.Contains(out, "color ignored") || !strings.Contains(out, "(1,2)") {
		t.Fatalf("pretty console output = %q", out)
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatalf("console format wrote JSON: %q", out)
	}
}

// Console output and the rotated file both receive each record.
func TestInitConsoleAndFile(t *testing.T) {
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("gdl_log_%d.json", time.Now().UnixNano()))
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Console: &buf})
	t.Cleanup(func() { Init(Options{Console: io.Discard}) })

	WithOperation(WithComponent("assets"), "pack").Info("packed", slog.Int("n", 4))
	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for name, data := range map[string][]byte{"file": b, "console": buf.Bytes()} {
		m := lastJSON(t, data)
		if m["op"] != "pack" || m["component"] != "assets" || m["msg"] != "packed" {
			t.Fatalf("%s record = %v", name, m)
		}
		if _, ok := m["ver"].(string); !ok {
			t.Fatalf("%s record missing ver", name)
		}
	}
}
