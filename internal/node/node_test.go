/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package node

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"godialogue/internal/assets"
	"godialogue/internal/table"
)

func testLoader() assets.Loader {
	return assets.NewFSLoader(fstest.MapFS{
		"portraits/alice.png": {Data: []byte("alice")},
		"sfx/door.json":       {Data: []byte(`{"fileName":"door","clip":"sfx/door_clip"}`)},
		"sfx/door_clip.wav":   {Data: []byte("RIFFdoor")},
		"sfx/bad.json":        {Data: []byte(`{"fileName":""}`)},
		"sfx/beep.wav":        {Data: []byte("RIFFbeep")},
	})
}

func TestResolveAllFields(t *testing.T) {
	var n Node
	row := table.Row{"a1", "Hello.", "portraits/alice", "sfx/door", "a2", "(255,0,0,100)"}
	if err := n.Resolve(context.Background(), row, testLoader()); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !n.Initialized() || n.ID != "a1" || n.Text != "Hello." || n.NextID != "a2" {
		t.Fatalf("Resolve = %+v", n)
	}
	if !n.HasImage() || string(n.Image.Data) != "alice" {
		t.Fatalf("image = %+v", n.Image)
	}
	if !n.HasAudio() || n.Audio.FileName != "door" || string(n.Audio.Data) != "RIFFdoor" {
		t.Fatalf("audio = %+v", n.Audio)
	}
	if !n.HasColor() || n.Color.R != 1 || n.Color.A != 1 {
		t.Fatalf("color = %+v (has %v)", n.Color, n.HasColor())
	}
	if n.Terminal() {
		t.Fatalf("node with next id reported terminal")
	}
}

func TestResolveRawClip(t *testing.T) {
	var n Node
	row := table.Row{"a1", "Beep.", "", "sfx/beep", "", ""}
	if err := n.Resolve(context.Background(), row, testLoader()); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !n.HasAudio() || n.Audio.FileName != "sfx/beep" || n.Audio.ClipType != ClipOneshot || string(n.Audio.Data) != "RIFFbeep" {
		t.Fatalf("audio = %+v", n.Audio)
	}
	if n.HasImage() || n.HasColor() || !n.Terminal() {
		t.Fatalf("unexpected optional fields: %+v", n)
	}
}

func TestResolveDegradesOnFailures(t *testing.T) {
	var n Node
	row := table.Row{"a1", "Still here.", "portraits/nobody", "sfx/bad", "", "(300,0,0,0)"}
	if err := n.Resolve(context.Background(), row, testLoader()); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !n.Initialized() || n.Text != "Still here." {
		t.Fatalf("Resolve = %+v", n)
	}
	if n.HasImage() || n.HasAudio() || n.HasColor() {
		t.Fatalf("failed fields should be unset: %+v", n)
	}
}

func TestResolveNilLoader(t *testing.T) {
	var n Node
	row := table.Row{"a1", "x", "portraits/alice", "", "", ""}
	if err := n.Resolve(context.Background(), row, nil); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if n.HasImage() {
		t.Fatalf("image set without loader")
	}
}

func TestResolveRowTooShort(t *testing.T) {
	var n Node
	err := n.Resolve(context.Background(), table.Row{"a1", "x", "", "", ""}, testLoader())
	if !errors.Is(err, ErrRowTooShort) {
		t.Fatalf("err = %v, want ErrRowTooShort", err)
	}
	if n.Initialized() {
		t.Fatalf("short row left node initialized")
	}
}

func TestResolveLoadsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := assets.LoaderFunc(func(ctx context.Context, key string) (*assets.Resource, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &assets.Resource{Key: key, Kind: assets.KindClip, Data: []byte(key)}, nil
	})
	var n Node
	row := table.Row{"a1", "x", "img", "snd", "", ""}
	if err := n.Resolve(context.Background(), row, slow); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if peak.Load() != 2 {
		t.Fatalf("peak concurrent loads = %d, want 2", peak.Load())
	}
	if !n.HasImage() || !n.HasAudio() {
		t.Fatalf("both loads should succeed: %+v", n)
	}
}

func TestResolveCanceled(t *testing.T) {
	block := assets.LoaderFunc(func(ctx context.Context, key string) (*assets.Resource, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	var n Node
	err := n.Resolve(ctx, table.Row{"a1", "x", "img", "", "", ""}, block)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if n.Initialized() {
		t.Fatalf("canceled resolve left node initialized")
	}
}

func TestReset(t *testing.T) {
	var n Node
	row := table.Row{"a1", "Hello.", "portraits/alice", "", "a2", "(0,0,0,0)"}
	if err := n.Resolve(context.Background(), row, testLoader()); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	n.Reset()
	if n.Initialized() || n.HasImage() || n.HasAudio() || n.HasColor() || n.Text != "" {
		t.Fatalf("Reset left state: %+v", n)
	}
}
