/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	// Language is a BCP 47 tag selecting the localized dialogue rows.
	Language string `yaml:"language"`
}

type PlaybackConfig struct {
	RevealRuneMs int      `yaml:"reveal_rune_ms"`
	ReleaseTable bool     `yaml:"release_table"`
	ConfirmKeys  []string `yaml:"confirm_keys"`
}

type AssetsConfig struct {
	Dir      string `yaml:"dir"`
	Bundle   string `yaml:"bundle"`
	PGDSN    string `yaml:"pg_dsn"`
	TableKey string `yaml:"table_key"`
	// The Postgres password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Playback      PlaybackConfig `yaml:"playback"`
	Assets        AssetsConfig   `yaml:"assets"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Language: "en"},
		Playback:      PlaybackConfig{RevealRuneMs: 30, ReleaseTable: true, ConfirmKeys: []string{"enter", "z"}},
		Assets:        AssetsConfig{Dir: "content", TableKey: "dialogue"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath   = "GDL_CONFIG"
	EnvLanguage     = "GDL_LANGUAGE"
	EnvRevealRuneMs = "GDL_REVEAL_RUNE_MS"
	EnvReleaseTable = "GDL_RELEASE_TABLE"
	EnvAssetsDir    = "GDL_ASSETS_DIR"
	EnvBundle       = "GDL_BUNDLE"
	EnvPGDSN        = "GDL_PG_DSN"
	EnvTableKey     = "GDL_TABLE_KEY"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GDL_LOG_LEVEL"
	EnvLogFormat = "GDL_LOG_FORMAT"
	EnvLogSource = "GDL_LOG_SOURCE"
	EnvLogFile   = "GDL_LOG_FILE"
)

// ConfigPath returns the per-user config file path. GDL_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoDialogue")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoDialogue")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "godialogue")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also returns the Postgres password from the keyring (not kept inside the struct).
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an error;
// a malformed one is.
func LoadFrom(path string) (AppConfig, string, error) {
	cfg, err := readFile(path)
	if err != nil {
		return cfg, "", err
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	pw, _ := tokenStore.Get(keyringService, keyringPGPassword)
	return cfg, pw, nil
}

// LoadFile reads the user config file over the defaults without environment
// overrides. It is the base to edit before Save.
func LoadFile() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return readFile(path)
}

func readFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// decode over the defaults so omitted booleans keep their default
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the user config YAML and stores the Postgres password in the OS keyring (if non-empty).
func Save(cfg AppConfig, pgPassword string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if pgPassword != "" {
		if err := tokenStore.Set(keyringService, keyringPGPassword, pgPassword); err != nil {
			return err
		}
	}
	return nil
}

// Field is one effective setting as shown by `config show`.
type Field struct {
	Key   string
	Value string
}

// Fields lists the settings in file order using their YAML keys.
func (c AppConfig) Fields() []Field {
	return []Field{
		{"general.language", c.General.Language},
		{"playback.reveal_rune_ms", strconv.Itoa(c.Playback.RevealRuneMs)},
		{"playback.release_table", strconv.FormatBool(c.Playback.ReleaseTable)},
		{"playback.confirm_keys", strings.Join(c.Playback.ConfirmKeys, ",")},
		{"assets.dir", c.Assets.Dir},
		{"assets.bundle", c.Assets.Bundle},
		{"assets.pg_dsn", redactDSN(c.Assets.PGDSN)},
		{"assets.table_key", c.Assets.TableKey},
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"logging.source", strconv.FormatBool(c.Logging.Source)},
		{"logging.file", c.Logging.File},
	}
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, set := u.User.Password(); !set {
		return dsn
	}
	return u.Redacted()
}

// Validate rejects values the player cannot run with.
func (c AppConfig) Validate() error {
	if c.Playback.RevealRuneMs < 0 {
		return fmt.Errorf("playback.reveal_rune_ms must be >= 0, got %d", c.Playback.RevealRuneMs)
	}
	if strings.TrimSpace(c.Assets.TableKey) == "" {
		return errors.New("assets.table_key is required")
	}
	return nil
}

// RevealDelay is the per-rune text reveal delay.
func (p PlaybackConfig) RevealDelay() time.Duration {
	return time.Duration(p.RevealRuneMs) * time.Millisecond
}

// DSN returns the Postgres DSN with password filled in when the DSN is a URL
// without one.
func (a AssetsConfig) DSN(password string) string {
	dsn := strings.TrimSpace(a.PGDSN)
	if dsn == "" || password == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.User == nil {
		return dsn
	}
	if _, set := u.User.Password(); set {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String()
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.Language); s != "" {
		dst.General.Language = s
	}
	dst.Playback.RevealRuneMs = src.Playback.RevealRuneMs
	// booleans: copy directly from src (file) so user preferences persist
	dst.Playback.ReleaseTable = src.Playback.ReleaseTable
	if len(src.Playback.ConfirmKeys) > 0 {
		dst.Playback.ConfirmKeys = append([]string(nil), src.Playback.ConfirmKeys...)
	}
	if s := strings.TrimSpace(src.Assets.Dir); s != "" {
		dst.Assets.Dir = s
	}
	dst.Assets.Bundle = strings.TrimSpace(src.Assets.Bundle)
	dst.Assets.PGDSN = strings.TrimSpace(src.Assets.PGDSN)
	if s := strings.TrimSpace(src.Assets.TableKey); s != "" {
		dst.Assets.TableKey = s
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvLanguage)); v != "" {
		cfg.General.Language = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRevealRuneMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Playback.RevealRuneMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvReleaseTable)); v != "" {
		cfg.Playback.ReleaseTable = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAssetsDir)); v != "" {
		cfg.Assets.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBundle)); v != "" {
		cfg.Assets.Bundle = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPGDSN)); v != "" {
		cfg.Assets.PGDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTableKey)); v != "" {
		cfg.Assets.TableKey = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.language":        EnvLanguage,
	"playback.reveal_rune_ms": EnvRevealRuneMs,
	"playback.release_table":  EnvReleaseTable,
	"assets.dir":              EnvAssetsDir,
	"assets.bundle":           EnvBundle,
	"assets.pg_dsn":           EnvPGDSN,
	"assets.table_key":        EnvTableKey,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
