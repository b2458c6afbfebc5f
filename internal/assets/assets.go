/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets resolves resource keys (portraits, sound descriptors, the raw
// dialogue table) to bytes. Keys are extension-less, slash separated paths such
// as "portraits/alice" or "dialogue_data".
//
// Three stores are provided: a plain directory, a packed SQLite bundle and a
// Postgres table. Chain combines them with first-hit-wins semantics.
package assets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned (wrapped) when a store has no resource for a key.
var ErrNotFound = errors.New("assets: not found")

// Kinds assigned from file extensions.
const (
	KindImage = "image"
	KindSound = "sound"
	KindClip  = "clip"
	KindTable = "table"
	KindBlob  = "blob"
)

// Resource is a loaded resource handle.
type Resource struct {
	Key  string
	Kind string
	Data []byte
}

// Loader loads a resource by key. Implementations must be safe for concurrent use.
type Loader interface {
	Load(ctx context.Context, key string) (*Resource, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, key string) (*Resource, error)

func (f LoaderFunc) Load(ctx context.Context, key string) (*Resource, error) { return f(ctx, key) }

// Store is a writable resource destination used by Pack.
type Store interface {
	Put(ctx context.Context, key, kind string, data []byte) error
}

// KindFor maps a file name to a resource kind by extension.
func KindFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return KindImage
	case ".json":
		return KindSound
	case ".wav", ".ogg", ".mp3", ".flac":
		return KindClip
	case ".csv", ".txt":
		return KindTable
	default:
		return KindBlob
	}
}

// KeyFor derives the resource key of a slash separated relative file path.
func KeyFor(rel string) string {
	rel = path.Clean(strings.TrimPrefix(rel, "./"))
	return strings.TrimSuffix(rel, path.Ext(rel))
}

func notFound(store, key string) error {
	return fmt.Errorf("%s: %q: %w", store, key, ErrNotFound)
}

// Chain tries each loader in order and returns the first hit. Errors other than
// ErrNotFound stop the chain.
func Chain(loaders ...Loader) Loader {
	return LoaderFunc(func(ctx context.Context, key string) (*Resource, error) {
		for _, l := range loaders {
			if l == nil {
				continue
			}
			r, err := l.Load(ctx, key)
			if err == nil {
				return r, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		return nil, notFound("chain", key)
	})
}
