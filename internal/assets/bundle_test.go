/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := OpenBundle(filepath.Join(t.TempDir(), "sub", "content.gdlb"))
	if err != nil {
		t.Fatalf("OpenBundle: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBundlePutLoad(t *testing.T) {
	b := openTestBundle(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Put(ctx, "portraits/alice", KindImage, []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Put(ctx, "portraits/alice", KindImage, []byte("v2")); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}
	r, err := b.Load(ctx, "portraits/alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(r.Data) != "v2" || r.Kind != KindImage {
		t.Fatalf("Load = %q/%s, want v2/image", r.Data, r.Kind)
	}
	if _, err := b.Load(ctx, "portraits/bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
	if err := b.Put(ctx, " ", KindBlob, nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestBundleSchemaMigrated(t *testing.T) {
	b := openTestBundle(t)
	v, err := b.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Fatalf("schema = %d, want %d", v, schemaVersion)
	}
}

func TestBundleReopenKeepsData(t *testing.T) {
	p := filepath.Join(t.TempDir(), "content.gdlb")
	b, err := OpenBundle(p)
	if err != nil {
		t.Fatalf("OpenBundle: %v", err)
	}
	ctx := context.Background()
	if err := b.Put(ctx, "script", KindTable, []byte("id,text\n")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = b.Close()

	b, err = OpenBundle(p)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	if _, err := b.Load(ctx, "script"); err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
}

func TestBundlePackFromDir(t *testing.T) {
	b := openTestBundle(t)
	n, err := NewFSLoader(sampleFS()).Pack(context.Background(), b)
	if err != nil || n != 4 {
		t.Fatalf("Pack = %d, %v", n, err)
	}
	r, err := b.Load(context.Background(), "sfx/door")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// two files share the stem; the last walked one (door.wav) wins
	if r.Kind != KindClip {
		t.Fatalf("kind = %s, want %s", r.Kind, KindClip)
	}
}

func TestBundleSearchLines(t *testing.T) {
	b := openTestBundle(t)
	ctx := context.Background()
	lines := []Line{
		{ID: "intro_en", Text: "The harbor is quiet tonight.", NextID: "intro2_en"},
		{ID: "intro2_en", Text: "Alice waits by the lighthouse.", NextID: "end"},
		{ID: "end", Text: "The lighthouse goes dark.", NextID: ""},
	}
	if err := b.IndexLines(ctx, lines); err != nil {
		t.Fatalf("IndexLines: %v", err)
	}
	hits, err := b.SearchLines(ctx, "lighthouse", 10)
	if err != nil {
		t.Fatalf("SearchLines: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2: %+v", len(hits), hits)
	}
	for _, h := range hits {
		if !strings.Contains(h.Snippet, "[lighthouse]") {
			t.Fatalf("snippet %q has no marked term", h.Snippet)
		}
	}

	// reindex replaces the previous rows
	if err := b.IndexLines(ctx, lines[:1]); err != nil {
		t.Fatalf("IndexLines again: %v", err)
	}
	hits, err = b.SearchLines(ctx, "lighthouse", 10)
	if err != nil {
		t.Fatalf("SearchLines: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits after reindex = %+v, want none", hits)
	}
	if _, err := b.SearchLines(ctx, "  ", 10); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
