package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	baseDir := t.TempDir()
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Mode() != ModeGuided {
		t.Fatalf("expected default mode %q, got %q", ModeGuided, c.Mode())
	}
	if c.TransitionDelay() != 1500*time.Millisecond || c.RejectionDelay() != time.Second {
		t.Fatalf("unexpected default delays: %v %v", c.TransitionDelay(), c.RejectionDelay())
	}
	if c.Settings.Canvas.Width != 800 || c.Settings.Canvas.Height != 500 {
		t.Fatalf("unexpected canvas %+v", c.Settings.Canvas)
	}
	if c.StagesPath() != "" {
		t.Fatalf("expected no stage override, got %q", c.StagesPath())
	}
}

func TestInitDirWritesParsableDefaults(t *testing.T) {
	baseDir := t.TempDir()
	if err := InitDir(baseDir); err != nil {
		t.Fatalf("InitDir returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, InitiationDir, "logs")); err != nil {
		t.Fatalf("logs dir missing: %v", err)
	}
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatalf("default config should parse: %v", err)
	}
	if c.AutoplayInterval() != 2500*time.Millisecond || c.CelebrationDelay() != 500*time.Millisecond {
		t.Fatalf("unexpected delays from default file")
	}
	if !strings.HasSuffix(c.LogPath(), filepath.Join(InitiationDir, "logs", "session.log")) {
		t.Fatalf("unexpected log path %s", c.LogPath())
	}
	// a second InitDir keeps the existing file
	if err := os.WriteFile(c.SettingsPath(), []byte("mode: interactive\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitDir(baseDir); err != nil {
		t.Fatalf("InitDir returned error: %v", err)
	}
	data, _ := os.ReadFile(c.SettingsPath())
	if string(data) != "mode: interactive\n" {
		t.Fatalf("InitDir overwrote existing config: %q", string(data))
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	baseDir := t.TempDir()
	dir := filepath.Join(baseDir, InitiationDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	settingsYAML := strings.TrimSpace(`
version: 1
mode: " Interactive "
timing:
  transition_ms: 200
  rejection_ms: 300
canvas:
  width: 400
  height: 250
stages:
  path: tables/short.yaml
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(settingsYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Mode() != ModeInteractive {
		t.Fatalf("expected interactive mode, got %q", c.Mode())
	}
	if c.TransitionDelay() != 200*time.Millisecond || c.RejectionDelay() != 300*time.Millisecond {
		t.Fatalf("unexpected delays %v %v", c.TransitionDelay(), c.RejectionDelay())
	}
	if c.AutoplayInterval() != 2500*time.Millisecond {
		t.Fatalf("missing timing should default, got %v", c.AutoplayInterval())
	}
	if c.StagesPath() != filepath.Join(baseDir, "tables", "short.yaml") {
		t.Fatalf("stage path not resolved: %s", c.StagesPath())
	}
}

func TestNewConfigValidation(t *testing.T) {
	cases := map[string]string{
		"bad mode":     "mode: autopilot\n",
		"negative":     "timing:\n  rejection_ms: -5\n",
		"bad canvas":   "canvas:\n  width: -1\n",
		"bad version":  "version: -2\n",
		"invalid yaml": "mode: [\n",
	}
	for name, doc := range cases {
		baseDir := t.TempDir()
		dir := filepath.Join(baseDir, InitiationDir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewConfig(baseDir); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	baseDir := t.TempDir()
	t.Setenv("INITIATION_MODE", "INTERACTIVE")
	t.Setenv("INITIATION_TRANSITION_MS", "50")
	t.Setenv("INITIATION_REJECTION_MS", "60")
	t.Setenv("INITIATION_CELEBRATION_MS", "70")
	t.Setenv("INITIATION_AUTOPLAY_MS", "80")
	t.Setenv("INITIATION_STAGES", "custom.yaml")
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Mode() != ModeInteractive {
		t.Fatalf("env mode not applied: %q", c.Mode())
	}
	if c.TransitionDelay() != 50*time.Millisecond || c.RejectionDelay() != 60*time.Millisecond ||
		c.CelebrationDelay() != 70*time.Millisecond || c.AutoplayInterval() != 80*time.Millisecond {
		t.Fatalf("env delays not applied")
	}
	if c.StagesPath() != filepath.Join(baseDir, "custom.yaml") {
		t.Fatalf("env stage path not applied: %s", c.StagesPath())
	}
}

func TestEnvOverridesRejectGarbage(t *testing.T) {
	t.Setenv("INITIATION_AUTOPLAY_MS", "soon")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error for non-numeric duration")
	}
	t.Setenv("INITIATION_AUTOPLAY_MS", "")
	t.Setenv("INITIATION_MODE", "sideways")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestSetModePersists(t *testing.T) {
	baseDir := t.TempDir()
	if err := InitDir(baseDir); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetMode("interactive"); err != nil {
		t.Fatalf("SetMode returned error: %v", err)
	}
	reloaded, err := NewConfig(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Mode() != ModeInteractive {
		t.Fatalf("mode not persisted, got %q", reloaded.Mode())
	}
	if err := c.SetMode("nope"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestSetModeOnlyRewritesMode(t *testing.T) {
	baseDir := t.TempDir()
	dir := filepath.Join(baseDir, InitiationDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	settingsYAML := `# kept header
version: 1

# Mode opened at launch: guided or interactive.
mode: " Guided "

timing:
  transition_ms: 200 # quick
stages:
  path: tables/short.yaml
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(settingsYAML), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INITIATION_TRANSITION_MS", "1")
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetMode("interactive"); err != nil {
		t.Fatalf("SetMode returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	saved := string(data)
	for _, want := range []string{
		"# kept header",
		"# Mode opened at launch: guided or interactive.",
		"mode: interactive",
		"transition_ms: 200 # quick",
		"path: tables/short.yaml",
	} {
		if !strings.Contains(saved, want) {
			t.Fatalf("saved config lost %q:\n%s", want, saved)
		}
	}
	if strings.Contains(saved, baseDir) {
		t.Fatalf("relative stage path was saved as absolute:\n%s", saved)
	}
	if strings.Contains(saved, "canvas:") {
		t.Fatalf("defaults should not be written back:\n%s", saved)
	}
}

func TestSetModeWithoutFileUsesTemplate(t *testing.T) {
	baseDir := t.TempDir()
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetMode(ModeInteractive); err != nil {
		t.Fatalf("SetMode returned error: %v", err)
	}
	data, err := os.ReadFile(c.SettingsPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# Mode opened at launch") || !strings.Contains(string(data), "mode: interactive") {
		t.Fatalf("expected commented template with the new mode:\n%s", data)
	}
	reloaded, err := NewConfig(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Mode() != ModeInteractive {
		t.Fatalf("mode not persisted, got %q", reloaded.Mode())
	}
}

func TestSetModeAppendsMissingKey(t *testing.T) {
	baseDir := t.TempDir()
	dir := filepath.Join(baseDir, InitiationDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("version: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetMode(ModeInteractive); err != nil {
		t.Fatalf("SetMode returned error: %v", err)
	}
	reloaded, err := NewConfig(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Mode() != ModeInteractive {
		t.Fatalf("mode not appended, got %q", reloaded.Mode())
	}
}
