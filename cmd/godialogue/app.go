/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"godialogue/internal/assets"
	"godialogue/internal/config"
	"godialogue/internal/crash"
	"godialogue/internal/export"
	"godialogue/internal/locale"
	applog "godialogue/internal/log"
	"godialogue/internal/node"
	"godialogue/internal/player"
	"godialogue/internal/script"
	"godialogue/internal/table"
	"godialogue/internal/term"
	"godialogue/internal/version"
)

func usage(out io.Writer) {
	fmt.Fprintln(out, "GoDialogue: data-driven dialogue player")
	fmt.Fprintf(out, "Version: %s\n", version.String())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  godialogue version|-v|--version        Show version")
	fmt.Fprintln(out, "  godialogue check                       Validate the dialogue table")
	fmt.Fprintln(out, "  godialogue play <id>                   Play a dialogue in the terminal (Enter/z next, Esc quit)")
	fmt.Fprintln(out, "  godialogue pack <dir> <bundle|pg>      Pack a content dir into a sqlite bundle or Postgres")
	fmt.Fprintln(out, "  godialogue search <query> [limit]      Full-text search over the bundle's dialogue lines")
	fmt.Fprintln(out, "  godialogue export-pdf <out.pdf> [ttf]  Print the dialogue table as a PDF script")
	fmt.Fprintln(out, "  godialogue config show                 Show the effective settings")
	fmt.Fprintln(out, "  godialogue config set-pg-password [-]  Store the Postgres password in the OS keyring (- reads stdin)")
	fmt.Fprintln(out, "  godialogue config forget-pg-password   Remove the stored Postgres password")
}

// run executes one command and returns the process exit code.
func run(args []string, out io.Writer, st *crash.State) int {
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(out)
		return 2
	}
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(out, version.String())
		return 0
	case "help", "-h", "--help":
		usage(out)
		return 0
	}

	cfg, pgPassword, err := config.Load()
	if err != nil {
		l.Error("load config failed", slog.Any("err", err))
		fmt.Fprintln(out, "Error:", err)
		return 1
	}
	logOpts := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
	if args[0] == "play" {
		logOpts.Console = io.Discard
	}
	applog.Init(logOpts)
	l = applog.WithComponent("cli")
	st.TableKey = cfg.Assets.TableKey

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "check":
		err = cmdCheck(ctx, cfg, pgPassword, out)
	case "play":
		if len(args) < 2 {
			fmt.Fprintln(out, "play requires <id>")
			usage(out)
			return 2
		}
		st.StartID = args[1]
		err = cmdPlay(ctx, cfg, pgPassword, args[1], st)
	case "pack":
		if len(args) < 3 {
			fmt.Fprintln(out, "pack requires <dir> and <bundle|pg>")
			usage(out)
			return 2
		}
		err = cmdPack(ctx, cfg, pgPassword, args[1], args[2], out)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(out, "search requires <query>")
			usage(out)
			return 2
		}
		limit := 20
		if len(args) > 2 {
			if n, convErr := strconv.Atoi(args[2]); convErr == nil {
				limit = n
			}
		}
		err = cmdSearch(ctx, cfg, args[1], limit, out)
	case "export-pdf":
		if len(args) < 2 {
			fmt.Fprintln(out, "export-pdf requires <out.pdf>")
			usage(out)
			return 2
		}
		font := ""
		if len(args) > 2 {
			font = args[2]
		}
		err = cmdExportPDF(ctx, cfg, pgPassword, args[1], font, out)
	case "config":
		if len(args) < 2 {
			fmt.Fprintln(out, "config requires show, set-pg-password or forget-pg-password")
			usage(out)
			return 2
		}
		err = cmdConfig(cfg, args[1:], out)
		if errors.Is(err, errUsage) {
			usage(out)
			return 2
		}
	default:
		usage(out)
		return 2
	}
	if err != nil {
		if errors.Is(err, errIssues) {
			return 1
		}
		l.Error(args[0]+" failed", slog.Any("err", err))
		fmt.Fprintln(out, "Error:", err)
		return 1
	}
	return 0
}

var (
	errIssues = errors.New("table has issues")
	errUsage  = errors.New("usage")
)

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

// openLoader chains the configured stores: bundle, then Postgres, then the
// content directory.
func openLoader(ctx context.Context, cfg config.AppConfig, pgPassword string) (assets.Loader, func(), error) {
	var (
		loaders []assets.Loader
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if cfg.Assets.Bundle != "" {
		b, err := assets.OpenBundle(cfg.Assets.Bundle)
		if err != nil {
			return nil, closeAll, err
		}
		loaders = append(loaders, b)
		closers = append(closers, func() { _ = b.Close() })
	}
	if dsn := cfg.Assets.DSN(pgPassword); dsn != "" {
		p, err := assets.OpenPG(ctx, dsn)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		loaders = append(loaders, p)
		closers = append(closers, func() { _ = p.Close() })
	}
	if cfg.Assets.Dir != "" {
		loaders = append(loaders, assets.NewDirLoader(cfg.Assets.Dir))
	}
	return assets.Chain(loaders...), closeAll, nil
}

func tableSource(loader assets.Loader, key string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		r, err := loader.Load(ctx, key)
		if err != nil {
			return "", fmt.Errorf("load table %q: %w", key, err)
		}
		return string(r.Data), nil
	}
}

func loadTable(ctx context.Context, cfg config.AppConfig, pgPassword string) (*table.Table, error) {
	loader, closeFn, err := openLoader(ctx, cfg, pgPassword)
	defer closeFn()
	if err != nil {
		return nil, err
	}
	return table.NewCache(tableSource(loader, cfg.Assets.TableKey)).Get(ctx)
}

func cmdCheck(ctx context.Context, cfg config.AppConfig, pgPassword string, out io.Writer) error {
	tbl, err := loadTable(ctx, cfg, pgPassword)
	if err != nil {
		return err
	}
	rep := script.Check(tbl)
	fmt.Fprintf(out, "Rows: %d\nColumns: %d\n", rep.Rows, rep.Columns)
	fmt.Fprintf(out, "Entries: %s\n", strings.Join(rep.Entries, ", "))
	fmt.Fprintf(out, "Terminals: %s\n", strings.Join(rep.Terminals, ", "))
	for _, i := range rep.Issues {
		fmt.Fprintln(out, "-", i.String())
	}
	if !rep.OK() {
		fmt.Fprintf(out, "%d issue(s)\n", len(rep.Issues))
		return errIssues
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdPlay(ctx context.Context, cfg config.AppConfig, pgPassword, id string, st *crash.State) error {
	keys, err := term.ParseKeys(cfg.Playback.ConfirmKeys)
	if err != nil {
		return err
	}
	loader, closeFn, err := openLoader(ctx, cfg, pgPassword)
	defer closeFn()
	if err != nil {
		return err
	}

	scr, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := scr.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer scr.Fini()

	view := term.New(scr, term.Options{RuneDelay: cfg.Playback.RevealDelay()})
	gate := player.NewGate()
	lang := cfg.General.Language
	p, err := player.New(
		table.NewCache(tableSource(loader, cfg.Assets.TableKey)),
		loader,
		player.Collaborators{Text: view, Image: view, Background: view, Audio: view, Input: gate, Host: view},
		player.Options{
			Localize:     func(id string) string { return locale.Apply(id, lang) },
			ReleaseTable: cfg.Playback.ReleaseTable,
		},
	)
	if err != nil {
		return err
	}
	st.Phase = func() string { return p.State().String() }

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go view.PumpKeys(ctx, gate, keys, cancel)
	err = p.Play(ctx, id)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if pe := (*player.PanicError)(nil); errors.As(err, &pe) {
		if path, rerr := crash.Report(st, pe.Value, pe.Stack); rerr == nil {
			return fmt.Errorf("%w (crash report: %s)", err, path)
		}
	}
	return err
}

func cmdPack(ctx context.Context, cfg config.AppConfig, pgPassword, dir, dst string, out io.Writer) error {
	src := assets.NewDirLoader(dir)
	if dst == "pg" {
		dsn := cfg.Assets.DSN(pgPassword)
		if dsn == "" {
			return errors.New("assets.pg_dsn is not configured")
		}
		p, err := assets.OpenPG(ctx, dsn)
		if err != nil {
			return err
		}
		defer p.Close()
		n, err := src.Pack(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Packed %d resources into postgres\n", n)
		return nil
	}

	abs, _ := filepath.Abs(dst)
	b, err := assets.OpenBundle(abs)
	if err != nil {
		return err
	}
	defer b.Close()
	n, err := src.Pack(ctx, b)
	if err != nil {
		return err
	}
	tbl, err := table.NewCache(tableSource(src, cfg.Assets.TableKey)).Get(ctx)
	if err != nil {
		return fmt.Errorf("index lines: %w", err)
	}
	if err := b.IndexLines(ctx, linesOf(tbl)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Packed %d resources and %d lines into %s\n", n, tbl.Len(), abs)
	return nil
}

func linesOf(tbl *table.Table) []assets.Line {
	rows := tbl.Rows()
	lines := make([]assets.Line, 0, len(rows))
	seen := map[string]bool{}
	for _, r := range rows {
		if len(r) < node.MinColumns || seen[r.ID()] {
			continue
		}
		seen[r.ID()] = true
		lines = append(lines, assets.Line{ID: r.ID(), Text: r[node.ColText], NextID: r[node.ColNext]})
	}
	return lines
}

func cmdSearch(ctx context.Context, cfg config.AppConfig, query string, limit int, out io.Writer) error {
	if cfg.Assets.Bundle == "" {
		return errors.New("assets.bundle is not configured")
	}
	b, err := assets.OpenBundle(cfg.Assets.Bundle)
	if err != nil {
		return err
	}
	defer b.Close()
	hits, err := b.SearchLines(ctx, query, limit)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%s\t%s\n", h.ID, h.Snippet)
	}
	fmt.Fprintf(out, "%d match(es)\n", len(hits))
	return nil
}

func cmdExportPDF(ctx context.Context, cfg config.AppConfig, pgPassword, outPath, font string, out io.Writer) error {
	tbl, err := loadTable(ctx, cfg, pgPassword)
	if err != nil {
		return err
	}
	if err := export.ScriptPDF(tbl, outPath, export.ScriptOptions{FontFile: font, Swatches: true}); err != nil {
		return err
	}
	fmt.Fprintln(out, "Wrote", outPath)
	return nil
}

func cmdConfig(cfg config.AppConfig, args []string, out io.Writer) error {
	switch args[0] {
	case "show":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "File:", path)
		for _, f := range cfg.Fields() {
			if name, ok := config.EnvOverrideFor(f.Key); ok {
				fmt.Fprintf(out, "%s: %s (from %s)\n", f.Key, f.Value, name)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", f.Key, f.Value)
		}
		pw := "not set"
		if config.HasPGPassword() {
			pw = "stored in keyring"
		}
		fmt.Fprintln(out, "assets.pg_password:", pw)
		return nil
	case "set-pg-password":
		var pw string
		if len(args) > 1 && args[1] != "-" {
			pw = args[1]
		} else {
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read password: %w", err)
			}
			pw = strings.TrimRight(line, "\r\n")
		}
		if pw == "" {
			return errors.New("empty password")
		}
		// save the file as written, without env overrides baked in
		fileCfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		if err := config.Save(fileCfg, pw); err != nil {
			return err
		}
		fmt.Fprintln(out, "Postgres password stored")
		return nil
	case "forget-pg-password":
		if err := config.ForgetPGPassword(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Postgres password removed")
		return nil
	}
	return errUsage
}
