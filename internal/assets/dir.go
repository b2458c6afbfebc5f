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
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// DirLoader serves resources from a directory tree. A key matches either the
// exact relative path or a file whose name without extension equals the key's
// last element ("portraits/alice" -> "portraits/alice.png").
type DirLoader struct {
	fsys fs.FS
}

// NewDirLoader returns a loader rooted at dir.
func NewDirLoader(dir string) *DirLoader { return &DirLoader{fsys: os.DirFS(dir)} }

// NewFSLoader returns a loader over an arbitrary fs.FS (embed.FS, fstest.MapFS).
func NewFSLoader(fsys fs.FS) *DirLoader { return &DirLoader{fsys: fsys} }

func (d *DirLoader) Load(ctx context.Context, key string) (*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" || !fs.ValidPath(key) {
		return nil, fmt.Errorf("dir: invalid key %q", key)
	}
	name, err := d.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(d.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("dir: read %s: %w", name, err)
	}
	return &Resource{Key: key, Kind: KindFor(name), Data: data}, nil
}

func (d *DirLoader) resolve(key string) (string, error) {
	if st, err := fs.Stat(d.fsys, key); err == nil && !st.IsDir() {
		return key, nil
	}
	dir, base := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(d.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("dir", key)
		}
		return "", fmt.Errorf("dir: list %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.TrimSuffix(n, path.Ext(n)) == base {
			return path.Join(dir, n), nil
		}
	}
	return "", notFound("dir", key)
}

// Walk calls fn for every regular file with its derived key.
func (d *DirLoader) Walk(fn func(key, name string) error) error {
	return fs.WalkDir(d.fsys, ".", func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			if p != "." && strings.HasPrefix(e.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(e.Name(), ".") {
			return nil
		}
		return fn(KeyFor(p), p)
	})
}

// Pack copies every file of d into dst and returns the number of resources written.
func (d *DirLoader) Pack(ctx context.Context, dst Store) (int, error) {
	n := 0
	err := d.Walk(func(key, name string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := fs.ReadFile(d.fsys, name)
		if err != nil {
			return fmt.Errorf("pack: read %s: %w", name, err)
		}
		if err := dst.Put(ctx, key, KindFor(name), data); err != nil {
			return fmt.Errorf("pack: put %s: %w", key, err)
		}
		n++
		return nil
	})
	return n, err
}
