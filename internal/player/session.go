/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package player

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	applog "godialogue/internal/log"
	"godialogue/internal/node"
	"godialogue/internal/table"
)

type session struct {
	p     *Player
	start string
	log   *slog.Logger
}

func (s *session) run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	began := time.Now()
	s.log.Info("session started", slog.String("id", s.start))
	if h := s.p.c.Host; h != nil {
		h.Show(true)
		defer h.Show(false)
	}
	defer func() {
		s.p.setState(Done)
		if err != nil {
			s.log.Error("session aborted", slog.Any("err", err), slog.Duration("elapsed", time.Since(began)))
			return
		}
		s.log.Info("session done", slog.Duration("elapsed", time.Since(began)))
	}()

	s.p.setState(LoadingCurrent)
	tbl, err := s.p.cache.Get(ctx)
	if err != nil {
		return fmt.Errorf("load table: %w", err)
	}
	var cur node.Node
	if err := s.resolve(ctx, tbl, &cur, s.start); err != nil {
		return err
	}

	for {
		s.p.setState(Presenting)
		nctx := applog.ContextWithNode(ctx, cur.ID)
		s.present(nctx, &cur)
		revealed := s.reveal(nctx, cur.Text)

		var (
			next     node.Node
			prefetch chan error
		)
		if !cur.Terminal() {
			prefetch = make(chan error, 1)
			go func(id string) {
				prefetch <- guard(func() error { return s.resolve(ctx, tbl, &next, id) })
			}(cur.NextID)
		}
		// a canceled session must not return while the prefetch still writes next
		wait := func() {
			if prefetch != nil {
				cancel()
				<-prefetch
			}
		}

		s.p.setState(AwaitingTextCompletion)
		select {
		case <-revealed:
		case <-ctx.Done():
			wait()
			return ctx.Err()
		}

		s.p.setState(AwaitingConfirmation)
		if err := s.confirm(ctx); err != nil {
			wait()
			return err
		}

		s.p.setState(Advancing)
		cur.Reset()
		if prefetch == nil {
			return nil
		}
		if err := <-prefetch; err != nil {
			return err
		}
		cur = next
	}
}

func (s *session) resolve(ctx context.Context, tbl *table.Table, n *node.Node, id string) error {
	row, err := tbl.Lookup(id)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", id, err)
	}
	if err := n.Resolve(ctx, row, s.p.loader); err != nil {
		return fmt.Errorf("resolve %q: %w", id, err)
	}
	return nil
}

func (s *session) present(ctx context.Context, n *node.Node) {
	c := s.p.c
	if n.HasImage() && c.Image != nil {
		c.Image.SetImage(n.Image)
	}
	if n.HasColor() && c.Background != nil {
		c.Background.SetColor(n.Color)
	}
	if n.HasAudio() && c.Audio != nil {
		c.Audio.Play(n.Audio)
	}
	s.log.DebugContext(ctx, "presenting",
		slog.Bool("image", n.HasImage()),
		slog.Bool("audio", n.HasAudio()),
		slog.Bool("color", n.HasColor()),
		slog.String("next", n.NextID),
	)
}

func (s *session) reveal(ctx context.Context, text string) <-chan struct{} {
	if s.p.c.Text == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.p.c.Text.Reveal(ctx, text)
}

func (s *session) confirm(ctx context.Context) error {
	in := s.p.c.Input
	in.SetPermission(true)
	defer in.SetPermission(false)
	select {
	case <-in.Confirmations():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
