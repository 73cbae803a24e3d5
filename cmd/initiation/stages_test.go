package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/translation-initiation/internal/stages"
)

func TestRenderStageTableListsEveryStage(t *testing.T) {
	out := renderStageTable(stages.Default())
	for _, want := range []string{"Initial State", "Ribosome Recruitment", "Elongation Begins", "(auto)", "eIF5B, 60s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stage table missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte(`
stages:
  - index: 0
    title: Start
    add: [16-40s]
  - index: 1
    title: Pick
    required: [16-40s]
completion:
  title: Done
`), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	validateCmd.SetOut(&out)
	if err := validateCmd.RunE(validateCmd, []string{good}); err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if !strings.Contains(out.String(), "2 stages, 0 windows, 1 selectable factors") {
		t.Fatalf("unexpected output %q", out.String())
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("stages:\n  - index: 3\n    title: Wrong\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := validateCmd.RunE(validateCmd, []string{bad}); err == nil {
		t.Fatalf("expected out of sequence index to fail")
	}
}
