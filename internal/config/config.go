// Package config loads service settings from a TOML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/youruser/certapp/internal/text"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "certgen.toml"

// Config is the top-level service configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
	Assets AssetsConfig `toml:"assets"`
	Render RenderConfig `toml:"render"`
	Stamp  StampConfig  `toml:"stamp"`
}

type ServerConfig struct {
	// Port the HTTP server listens on.
	Port string `toml:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `toml:"mode"`
}

type LogConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// File enables rotated file output; empty logs to stderr.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type AssetsConfig struct {
	// Root is a directory or an http(s) base URL holding the artwork.
	Root string `toml:"root"`
	// Catalog is a TOML category catalog; empty uses the built-in one.
	Catalog            string `toml:"catalog"`
	Attempts           int    `toml:"attempts"`
	BackoffMS          int    `toml:"backoff_ms"`
	HTTPRetryMax       int    `toml:"http_retry_max"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
	// Watch reloads the image cache when files matching WatchPattern change.
	Watch        bool   `toml:"watch"`
	WatchPattern string `toml:"watch_pattern"`
	Preload      bool   `toml:"preload"`
}

type RenderConfig struct {
	CaptionY      float64 `toml:"caption_y"`
	NameY         float64 `toml:"name_y"`
	CaptionColor  string  `toml:"caption_color"`
	NameColor     string  `toml:"name_color"`
	CaptionFont   string  `toml:"caption_font"`
	CaptionSize   float64 `toml:"caption_size"`
	LatinFont     string  `toml:"latin_font"`
	CJKFont       string  `toml:"cjk_font"`
	NameSize      float64 `toml:"name_size"`
	HueDebounceMS int     `toml:"hue_debounce_ms"`
}

type StampConfig struct {
	Enabled bool   `toml:"enabled"`
	Size    int    `toml:"size"`
	Margin  int    `toml:"margin"`
	Prefix  string `toml:"prefix"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Mode: "release"},
		Log:    LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
		Assets: AssetsConfig{
			Root:               ".",
			Attempts:           3,
			BackoffMS:          500,
			HTTPRetryMax:       2,
			HTTPTimeoutSeconds: 30,
			WatchPattern:       "**/*.{png,jpg,jpeg}",
			Preload:            true,
		},
		Render: RenderConfig{
			CaptionY:      700,
			NameY:         1130,
			CaptionColor:  "#D5D5D5",
			NameColor:     "#FFFFFF",
			CaptionFont:   "go:regular",
			CaptionSize:   22,
			LatinFont:     "go:bold",
			CJKFont:       "go:medium",
			NameSize:      45,
			HueDebounceMS: 16,
		},
		Stamp: StampConfig{Size: 120, Margin: 40, Prefix: "cert:"},
	}
}

// Load decodes path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = strings.TrimPrefix(v, ":")
	}
	if v := getenv("CERTGEN_ASSETS"); v != "" {
		c.Assets.Root = v
	}
	if v := getenv("CERTGEN_CATALOG"); v != "" {
		c.Assets.Catalog = v
	}
	if v := getenv("CERTGEN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("CERTGEN_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server.port %q", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q: must be debug, release, or test", c.Server.Mode)
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Assets.Attempts <= 0 {
		return fmt.Errorf("assets.attempts must be > 0, got %d", c.Assets.Attempts)
	}
	if c.Assets.BackoffMS < 0 {
		return fmt.Errorf("assets.backoff_ms must be >= 0, got %d", c.Assets.BackoffMS)
	}
	if c.Assets.HTTPRetryMax < 0 {
		return fmt.Errorf("assets.http_retry_max must be >= 0, got %d", c.Assets.HTTPRetryMax)
	}
	if c.Assets.Watch && !doublestar.ValidatePattern(c.Assets.WatchPattern) {
		return fmt.Errorf("invalid assets.watch_pattern %q", c.Assets.WatchPattern)
	}
	if _, err := ParseHexColor(c.Render.CaptionColor); err != nil {
		return fmt.Errorf("render.caption_color: %w", err)
	}
	if _, err := ParseHexColor(c.Render.NameColor); err != nil {
		return fmt.Errorf("render.name_color: %w", err)
	}
	if c.Render.CaptionSize <= 0 || c.Render.NameSize <= 0 {
		return errors.New("render font sizes must be > 0")
	}
	if c.Render.HueDebounceMS < 0 {
		return fmt.Errorf("render.hue_debounce_ms must be >= 0, got %d", c.Render.HueDebounceMS)
	}
	if c.Stamp.Enabled && c.Stamp.Size <= 0 {
		return fmt.Errorf("stamp.size must be > 0, got %d", c.Stamp.Size)
	}
	return nil
}

// Warnings lists settings that are valid but likely to render badly. The
// builtin go: fonts have no CJK glyphs, so Chinese names and captions
// come out as missing-glyph boxes until a real font file is configured.
func (c *Config) Warnings() []string {
	var out []string
	if strings.HasPrefix(c.Render.CJKFont, "go:") {
		out = append(out, fmt.Sprintf("render.cjk_font is the builtin %q which has no CJK glyphs; set it to a CJK font file", c.Render.CJKFont))
	}
	if strings.HasPrefix(c.Render.CaptionFont, "go:") {
		out = append(out, fmt.Sprintf("render.caption_font is the builtin %q which has no CJK glyphs; CJK captions will not render", c.Render.CaptionFont))
	}
	return out
}

func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Assets.BackoffMS) * time.Millisecond
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Assets.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) HueDebounce() time.Duration {
	return time.Duration(c.Render.HueDebounceMS) * time.Millisecond
}

// TextRenderer builds the text renderer from the render section.
func (c *Config) TextRenderer() (*text.Renderer, error) {
	r := c.Render
	caption, err := text.LoadTypeface(r.CaptionFont, r.CaptionSize)
	if err != nil {
		return nil, fmt.Errorf("caption font: %w", err)
	}
	latin, err := text.LoadTypeface(r.LatinFont, r.NameSize)
	if err != nil {
		return nil, fmt.Errorf("latin font: %w", err)
	}
	cjk, err := text.LoadTypeface(r.CJKFont, r.NameSize)
	if err != nil {
		return nil, fmt.Errorf("cjk font: %w", err)
	}
	captionColor, err := ParseHexColor(r.CaptionColor)
	if err != nil {
		return nil, err
	}
	nameColor, err := ParseHexColor(r.NameColor)
	if err != nil {
		return nil, err
	}
	return &text.Renderer{
		Caption:      caption,
		CaptionColor: captionColor,
		CaptionY:     r.CaptionY,
		Latin:        latin,
		CJK:          cjk,
		NameColor:    nameColor,
		NameY:        r.NameY,
	}, nil
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: must be 6 or 8 hex digits", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xFF
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
