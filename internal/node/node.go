/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package node turns a dialogue table row into a presentable node: text, the
// next id, and the optional portrait, sound and background color.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"godialogue/internal/assets"
	applog "godialogue/internal/log"
	"godialogue/internal/table"
)

// Column positions of a dialogue row.
const (
	ColID = iota
	ColText
	ColImage
	ColAudio
	ColNext
	ColColor

	MinColumns
)

var (
	// ErrRowTooShort is fatal to the session.
	ErrRowTooShort = errors.New("node: row too short")
	// ErrResourceLoad is logged and leaves the image or audio unset.
	ErrResourceLoad = errors.New("node: resource load failed")
	// ErrColorFormat is logged and leaves the color unset.
	ErrColorFormat = errors.New("node: bad color code")
)

// Node is the resolved form of one row. The zero value is an empty,
// uninitialized node ready for Resolve.
type Node struct {
	ID     string
	Text   string
	NextID string
	Image  *assets.Resource
	Audio  *Sound
	Color  Color

	hasColor    bool
	initialized bool
}

func (n *Node) HasImage() bool    { return n.Image != nil }
func (n *Node) HasAudio() bool    { return n.Audio != nil }
func (n *Node) HasColor() bool    { return n.hasColor }
func (n *Node) Initialized() bool { return n.initialized }

// Terminal reports whether the node ends the dialogue.
func (n *Node) Terminal() bool { return n.NextID == "" }

// Reset drops every field and resource reference.
func (n *Node) Reset() { *n = Node{} }

// Resolve fills n from row. Image and audio load concurrently through loader;
// a failed load is logged and leaves that field unset. Only a short row or a
// canceled context is returned as an error.
func (n *Node) Resolve(ctx context.Context, row table.Row, loader assets.Loader) error {
	n.Reset()
	if len(row) < MinColumns {
		return fmt.Errorf("%w: %d columns, want %d", ErrRowTooShort, len(row), MinColumns)
	}
	ctx = applog.ContextWithNode(ctx, row[ColID])
	l := applog.WithOperation(applog.WithComponent("node"), "resolve")

	var (
		img   *assets.Resource
		sound *Sound
	)
	g, gctx := errgroup.WithContext(ctx)
	if key := strings.TrimSpace(row[ColImage]); key != "" {
		g.Go(func() error {
			r, err := load(gctx, loader, key)
			if err != nil {
				return absorb(gctx, l, "image", key, err)
			}
			img = r
			return nil
		})
	}
	if key := strings.TrimSpace(row[ColAudio]); key != "" {
		g.Go(func() error {
			s, err := loadSound(gctx, loader, key)
			if err != nil {
				return absorb(gctx, l, "audio", key, err)
			}
			sound = s
			return nil
		})
	}

	var (
		col Color
		ok  bool
	)
	if code := strings.TrimSpace(row[ColColor]); code != "" {
		c, err := ParseColor(code)
		if err != nil {
			l.WarnContext(ctx, "color ignored", slog.String("code", code), slog.Any("err", err))
		} else {
			col, ok = c, true
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n.ID = row[ColID]
	n.Text = row[ColText]
	n.NextID = row[ColNext]
	n.Image = img
	n.Audio = sound
	n.Color, n.hasColor = col, ok
	n.initialized = true
	return nil
}

// absorb logs a recoverable load failure. Cancellation is passed through.
func absorb(ctx context.Context, l *slog.Logger, field, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	l.WarnContext(ctx, "resource load failed",
		slog.String("field", field),
		slog.String("key", key),
		slog.Any("err", err),
	)
	return nil
}

func load(ctx context.Context, loader assets.Loader, key string) (*assets.Resource, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: no loader for %q", ErrResourceLoad, key)
	}
	r, err := loader.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}
	return r, nil
}

// loadSound accepts either a JSON descriptor (optionally naming a clip to
// load) or a raw clip which gets the default parameters.
func loadSound(ctx context.Context, loader assets.Loader, key string) (*Sound, error) {
	r, err := load(ctx, loader, key)
	if err != nil {
		return nil, err
	}
	if r.Kind != assets.KindSound {
		s := DefaultSound(key)
		s.Data = r.Data
		return s, nil
	}
	s, err := DecodeSound(r.Data)
	if err != nil {
		return nil, err
	}
	if s.Clip != "" {
		clip, err := load(ctx, loader, s.Clip)
		if err != nil {
			return nil, err
		}
		s.Data = clip.Data
	}
	return s, nil
}
