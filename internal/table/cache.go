/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package table

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	applog "godialogue/internal/log"
)

// Cache holds the process-wide table with build-once semantics.
// Concurrent Get calls share a single in-flight build. A successful build or a
// build error (ErrParse, ErrTableCorrupt) is kept until Release; errors from
// the source loader are not kept, so a later Get retries.
type Cache struct {
	load  func(ctx context.Context) (string, error)
	group singleflight.Group

	mu    sync.RWMutex
	gen   int
	done  bool
	table *Table
	err   error
}

// NewCache returns a cache that fetches the raw script text with load.
func NewCache(load func(ctx context.Context) (string, error)) *Cache {
	return &Cache{load: load}
}

// Get returns the built table, building it on first use. A canceled ctx
// stops this caller waiting; the shared build keeps running for the others.
func (c *Cache) Get(ctx context.Context) (*Table, error) {
	c.mu.RLock()
	if c.done {
		t, err := c.table, c.err
		c.mu.RUnlock()
		return t, err
	}
	gen := c.gen
	c.mu.RUnlock()

	// the build is shared, so one caller giving up must not cancel it for
	// the others still waiting
	bctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.Itoa(gen), func() (any, error) {
		return c.build(bctx, gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Table), nil
	}
}

func (c *Cache) build(ctx context.Context, gen int) (*Table, error) {
	l := applog.WithOperation(applog.WithComponent("table"), "build")
	text, err := c.load(ctx)
	if err != nil {
		l.Error("load table source failed", slog.Any("err", err))
		return nil, err
	}
	t, err := Build(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.done, c.table, c.err = true, t, err
	}
	if err != nil {
		l.Error("table build failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("table ready", slog.Int("rows", t.Len()), slog.Int("columns", t.Columns()))
	return t, nil
}

// Ready reports whether a successfully built table is cached.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done && c.err == nil
}

// Release drops the cached table (or cached build error). A build that is in
// flight while Release runs does not repopulate the cache.
func (c *Cache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.done, c.table, c.err = false, nil, nil
}

// Lookup is a convenience that resolves id against the cached table.
// It fails with ErrNotReady if the table has not been built successfully.
func (c *Cache) Lookup(id string) (Row, error) {
	c.mu.RLock()
	t, err := c.table, c.err
	c.mu.RUnlock()
	if err != nil {
		return nil, errors.Join(ErrNotReady, err)
	}
	return t.Lookup(id)
}
