/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the CLI into a crash report file.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "godialogue/internal/log"
	"godialogue/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// State describes what the process was doing. All fields are optional.
type State struct {
	// Dir receives the report; the temp dir when empty.
	Dir      string
	TableKey string
	StartID  string
	// Phase reports the player state at crash time.
	Phase func() string
}

// Recover captures a panic, logs it with the stacktrace, writes a crash
// report and exits with code 2.
//
// Usage: defer crash.Recover(st)
func Recover(st *State) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := Report(st, r, stack)
		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

// Report writes a crash report for a panic recovered elsewhere, such as a
// player session goroutine, and returns its path.
func Report(st *State, panicVal any, stack []byte) (string, error) {
	path, err := writeReport(st, panicVal, stack)
	if err != nil {
		applog.WithComponent("crash").Error("write crash report failed", slog.Any("err", err))
	}
	return path, err
}

func writeReport(st *State, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if st != nil && st.Dir != "" {
		dir = st.Dir
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(dir, fmt.Sprintf("godialogue-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "GoDialogue Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if st != nil {
		if st.TableKey != "" {
			_, _ = fmt.Fprintf(&buf, "Table: %s\n", st.TableKey)
		}
		if st.StartID != "" {
			_, _ = fmt.Fprintf(&buf, "StartID: %s\n", st.StartID)
		}
		if st.Phase != nil {
			_, _ = fmt.Fprintf(&buf, "Phase: %s\n", st.Phase())
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
