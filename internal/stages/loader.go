package stages

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/translation-initiation/internal/catalog"
)

//go:embed table.yaml
var defaultTableYAML []byte

var (
	defaultOnce  sync.Once
	defaultTable Table
)

// ParseTableYAML decodes a stage table and validates it against cat.
func ParseTableYAML(data []byte, cat *catalog.Catalog) (Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Table{}, fmt.Errorf("stages: table payload is empty")
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("stages: decode table: %w", err)
	}
	return t.Normalized(cat)
}

// LoadTableReader reads table data from an io.Reader.
func LoadTableReader(r io.Reader, cat *catalog.Catalog) (Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("stages: read table: %w", err)
	}
	return ParseTableYAML(content, cat)
}

// LoadTableFile loads a table from an explicit file path.
func LoadTableFile(path string, cat *catalog.Catalog) (Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("stages: read %s: %w", path, err)
	}
	t, parseErr := ParseTableYAML(content, cat)
	if parseErr != nil {
		return Table{}, fmt.Errorf("stages: %s: %w", path, parseErr)
	}
	return t, nil
}

// Load returns the table at path, or the embedded table when path is blank.
func Load(path string) (Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadTableFile(path, catalog.Default())
}

// Default returns the embedded thirteen stage table.
func Default() Table {
	defaultOnce.Do(func() {
		t, err := ParseTableYAML(defaultTableYAML, catalog.Default())
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable.Clone()
}
