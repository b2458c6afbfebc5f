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
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheBuildsOnceForConcurrentCallers(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewCache(func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return sampleScript, nil
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl, err := c.Get(context.Background())
			if err == nil && tbl.Len() != 3 {
				err = errors.New("unexpected table size")
			}
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("load called %d times, want 1", n)
	}
	if !c.Ready() {
		t.Fatalf("cache should be ready")
	}
	// Subsequent calls are served from the cache.
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get after build: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("load called %d times after cached Get, want 1", n)
	}
}

func TestCacheKeepsBuildError(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "id,text,next\na,b,c\nbad,row\n", nil
	})
	for i := 0; i < 2; i++ {
		if _, err := c.Get(context.Background()); !errors.Is(err, ErrTableCorrupt) {
			t.Fatalf("Get error = %v, want ErrTableCorrupt", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("load called %d times, want 1", n)
	}
	if c.Ready() {
		t.Fatalf("cache must not be ready after a failed build")
	}
	if _, err := c.Lookup("a"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Lookup after failed build = %v, want ErrNotReady", err)
	}
}

func TestCacheRetriesLoadErrorAndReleases(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("asset store offline")
		}
		return sampleScript, nil
	})
	if _, err := c.Lookup("intro_en"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Lookup before Get = %v, want ErrNotReady", err)
	}
	if _, err := c.Get(context.Background()); err == nil {
		t.Fatalf("expected first Get to fail")
	}
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("second Get error: %v", err)
	}
	if _, err := c.Lookup("intro_en"); err != nil {
		t.Fatalf("Lookup after Get: %v", err)
	}
	c.Release()
	if c.Ready() {
		t.Fatalf("cache still ready after Release")
	}
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get after Release error: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("load called %d times, want 3", n)
	}
}

func TestCacheGetHonorsContext(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	c := NewCache(func(ctx context.Context) (string, error) {
		<-block
		return sampleScript, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Get error = %v, want DeadlineExceeded", err)
	}
}

func TestCacheBuildSurvivesFirstCallerCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := NewCache(func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
			return sampleScript, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Get(ctxA)
		errA <- err
	}()
	<-started

	type result struct {
		tbl *Table
		err error
	}
	resB := make(chan result, 1)
	go func() {
		tbl, err := c.Get(context.Background())
		resB <- result{tbl, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("caller A error = %v, want Canceled", err)
	}
	close(release)
	r := <-resB
	if r.err != nil {
		t.Fatalf("caller B error = %v, want nil", r.err)
	}
	if r.tbl.Len() != 3 {
		t.Fatalf("caller B Len = %d, want 3", r.tbl.Len())
	}
	if !c.Ready() {
		t.Fatalf("cache should be ready after the shared build")
	}
}
