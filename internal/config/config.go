// internal/config/config.go
//
// This package handles configuration and the .initiation directory structure.
// The first launch in a directory creates .initiation/ with a commented
// config.yaml that later launches read back.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// InitiationDir is the name of the directory we create in the working directory
	InitiationDir = ".initiation"

	ModeGuided      = "guided"
	ModeInteractive = "interactive"

	defaultTransitionMS  = 1500
	defaultRejectionMS   = 1000
	defaultCelebrationMS = 500
	defaultAutoplayMS    = 2500
	defaultCanvasWidth   = 800
	defaultCanvasHeight  = 500
)

const defaultSettingsYAML = `# translation initiation stepper configuration
version: 1

# Mode opened at launch: guided or interactive.
mode: guided

# Delays in milliseconds.
timing:
  transition_ms: 1500   # pause before moving to the next stage
  rejection_ms: 1000    # how long a wrong pick stays flagged
  celebration_ms: 500   # pause before the certificate appears
  autoplay_ms: 2500     # guided autoplay interval

# Logical coordinate space that factor positions are expressed in.
canvas:
  width: 800
  height: 500

stages:
  # Optional path to a replacement stage table (relative to this directory's parent).
  path: ""
`

// Timing holds delays in milliseconds.
type Timing struct {
	TransitionMS  int `yaml:"transition_ms"`
	RejectionMS   int `yaml:"rejection_ms"`
	CelebrationMS int `yaml:"celebration_ms"`
	AutoplayMS    int `yaml:"autoplay_ms"`
}

// Canvas describes the logical drawing area.
type Canvas struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// StagesConfig points at an optional stage table override.
type StagesConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Settings models .initiation/config.yaml.
type Settings struct {
	Version int          `yaml:"version"`
	Mode    string       `yaml:"mode"`
	Timing  Timing       `yaml:"timing"`
	Canvas  Canvas       `yaml:"canvas"`
	Stages  StagesConfig `yaml:"stages"`
}

// Config holds the runtime configuration for one launch.
type Config struct {
	// BaseDir is the directory the program was started in (or -dir)
	BaseDir string

	// InitiationDir is BaseDir/.initiation
	InitiationDir string

	Settings Settings
}

// InitDir creates the .initiation directory structure in baseDir.
//
// Structure created:
// .initiation/
// ├── config.yaml
// └── logs/
func InitDir(baseDir string) error {
	root := filepath.Join(baseDir, InitiationDir)
	if err := os.MkdirAll(filepath.Join(root, "logs"), 0755); err != nil {
		return fmt.Errorf("config: create %s: %w", root, err)
	}
	return ensureSettingsFile(filepath.Join(root, "config.yaml"))
}

// NewConfig loads settings for baseDir. A missing config file yields the
// defaults; environment variables override whatever the file says.
func NewConfig(baseDir string) (*Config, error) {
	cfg := &Config{
		BaseDir:       baseDir,
		InitiationDir: filepath.Join(baseDir, InitiationDir),
		Settings:      defaultSettings(),
	}
	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	if err := cfg.Settings.applyEnvOverrides(baseDir); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.InitiationDir, "logs")
}

// LogPath returns the session journal location
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "session.log")
}

// SettingsPath returns the on-disk location for the config file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.InitiationDir, "config.yaml")
}

// Mode returns the configured launch mode.
func (c *Config) Mode() string {
	return c.Settings.Mode
}

// StagesPath returns the resolved override table path, or "" for the
// built-in table.
func (c *Config) StagesPath() string {
	return c.Settings.Stages.Path
}

// TransitionDelay is the pause before advancing to the next stage.
func (c *Config) TransitionDelay() time.Duration { return millis(c.Settings.Timing.TransitionMS) }

// RejectionDelay is how long a wrong pick stays flagged.
func (c *Config) RejectionDelay() time.Duration { return millis(c.Settings.Timing.RejectionMS) }

// CelebrationDelay is the pause before the certificate appears.
func (c *Config) CelebrationDelay() time.Duration { return millis(c.Settings.Timing.CelebrationMS) }

// AutoplayInterval is the guided autoplay step interval.
func (c *Config) AutoplayInterval() time.Duration { return millis(c.Settings.Timing.AutoplayMS) }

// SetMode updates the launch mode and persists it back to config.yaml so the
// next launch opens where the learner left off. Only the mode scalar in the
// file is rewritten: comments, raw relative paths and environment overrides
// are left alone.
func (c *Config) SetMode(mode string) error {
	mode = normalizeMode(mode)
	if mode != ModeGuided && mode != ModeInteractive {
		return fmt.Errorf("config: mode must be %q or %q", ModeGuided, ModeInteractive)
	}
	c.Settings.Mode = mode
	return c.persistMode(mode)
}

func (c *Config) loadSettings() error {
	path := c.SettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.BaseDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Settings = parsed
	return nil
}

func defaultSettings() Settings {
	s := Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.Version == 0 {
		s.Version = 1
	}
	if strings.TrimSpace(s.Mode) == "" {
		s.Mode = ModeGuided
	}
	if s.Timing.TransitionMS == 0 {
		s.Timing.TransitionMS = defaultTransitionMS
	}
	if s.Timing.RejectionMS == 0 {
		s.Timing.RejectionMS = defaultRejectionMS
	}
	if s.Timing.CelebrationMS == 0 {
		s.Timing.CelebrationMS = defaultCelebrationMS
	}
	if s.Timing.AutoplayMS == 0 {
		s.Timing.AutoplayMS = defaultAutoplayMS
	}
	if s.Canvas.Width == 0 {
		s.Canvas.Width = defaultCanvasWidth
	}
	if s.Canvas.Height == 0 {
		s.Canvas.Height = defaultCanvasHeight
	}
}

func (s *Settings) normalize(base string) {
	s.Mode = normalizeMode(s.Mode)
	s.Stages.Path = resolvePath(base, s.Stages.Path)
}

func (s *Settings) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if s.Mode != ModeGuided && s.Mode != ModeInteractive {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeGuided, ModeInteractive, s.Mode)
	}
	timings := map[string]int{
		"timing.transition_ms":  s.Timing.TransitionMS,
		"timing.rejection_ms":   s.Timing.RejectionMS,
		"timing.celebration_ms": s.Timing.CelebrationMS,
		"timing.autoplay_ms":    s.Timing.AutoplayMS,
	}
	for key, value := range timings {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive")
	}
	return nil
}

func (s *Settings) applyEnvOverrides(base string) error {
	if mode := strings.TrimSpace(os.Getenv("INITIATION_MODE")); mode != "" {
		s.Mode = normalizeMode(mode)
	}
	durations := []struct {
		env    string
		target *int
	}{
		{"INITIATION_TRANSITION_MS", &s.Timing.TransitionMS},
		{"INITIATION_REJECTION_MS", &s.Timing.RejectionMS},
		{"INITIATION_CELEBRATION_MS", &s.Timing.CelebrationMS},
		{"INITIATION_AUTOPLAY_MS", &s.Timing.AutoplayMS},
	}
	for _, d := range durations {
		value := strings.TrimSpace(os.Getenv(d.env))
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.env, err)
		}
		*d.target = parsed
	}
	if path := strings.TrimSpace(os.Getenv("INITIATION_STAGES")); path != "" {
		s.Stages.Path = resolvePath(base, path)
	}
	return s.validate()
}

func normalizeMode(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureSettingsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultSettingsYAML), 0644)
}

func (c *Config) persistMode(mode string) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	path := c.SettingsPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data = []byte(defaultSettingsYAML)
	} else if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := setScalar(&doc, "mode", mode); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.MkdirAll(c.InitiationDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure initiation dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}

// setScalar sets a top-level key of a YAML document, appending it when
// missing. The value node keeps its comments.
func setScalar(doc *yaml.Node, key, value string) error {
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if doc.Kind != yaml.DocumentNode {
		return fmt.Errorf("expected a YAML document")
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("top level must be a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != key {
			continue
		}
		node := root.Content[i+1]
		node.Kind = yaml.ScalarNode
		node.Tag = "!!str"
		node.Style = 0
		node.Value = value
		node.Content = nil
		return nil
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
	return nil
}
