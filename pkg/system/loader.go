package system

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvSystem supplies the system file path when none is configured.
const EnvSystem = "FUZZY_SYSTEM"

//go:embed systems/lettuce.yaml
var lettuceYAML []byte

// Loader handles loading system declarations
type Loader struct {
	configPath string
}

// NewLoader creates a new system loader. An empty path selects the embedded
// default system.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Path returns the file the loader reads, or "" for the embedded default.
func (l *Loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}
	return os.Getenv(EnvSystem)
}

// Load reads and parses the system declaration
func (l *Loader) Load() (*System, error) {
	path := l.Path()
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system file %s: %w", path, err)
	}

	sys, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sys, nil
}

// LoadFromBytes parses a system declaration from YAML
func LoadFromBytes(data []byte) (*System, error) {
	var sys System
	if err := yaml.Unmarshal(data, &sys); err != nil {
		return nil, fmt.Errorf("failed to parse YAML system: %w", err)
	}
	if sys.Name == "" {
		return nil, fmt.Errorf("system has no name")
	}
	return &sys, nil
}

// Save writes the declaration to a YAML file
func (l *Loader) Save(sys *System) error {
	path := l.Path()
	if path == "" {
		return fmt.Errorf("no system file configured")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	data, err := yaml.Marshal(sys)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write system file: %w", err)
	}

	return nil
}

// Default returns the embedded lettuce greenhouse controller
func Default() (*System, error) {
	return LoadFromBytes(lettuceYAML)
}
