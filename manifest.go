package codanative

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const maxManifestSize = 1024 * 1024 // 1MB

// Manifest lists the libraries a host loads at startup.
type Manifest struct {
	// ABI, if set, must be compatible with the host's ABIVersion.
	ABI       string        `yaml:"abi"`
	Libraries []LibrarySpec `yaml:"libraries"`

	dir string
}

// LibrarySpec is one manifest entry.
type LibrarySpec struct {
	Path     string   `yaml:"path"`
	Backend  string   `yaml:"backend"`
	Optional bool     `yaml:"optional"`
	Expect   []string `yaml:"expect"`
}

// ReadManifest reads and validates the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxManifestSize {
		return nil, fmt.Errorf("manifest %s is too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes a YAML manifest. Relative library paths are kept
// as written.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := checkABI(ABIVersion, m.ABI); err != nil {
		return nil, err
	}
	for i, spec := range m.Libraries {
		if spec.Path == "" {
			return nil, fmt.Errorf("library %d has no path", i)
		}
		if _, err := ParseBackend(spec.Backend); err != nil {
			return nil, fmt.Errorf("library %s: %w", spec.Path, err)
		}
	}
	return &m, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// LoadManifest loads every library listed in the manifest at path.
// Failures of optional libraries are logged only.
func (m *Manager) LoadManifest(path string) error {
	man, err := ReadManifest(path)
	if err != nil {
		return err
	}
	return m.LoadFromManifest(man)
}

// LoadFromManifest loads the libraries of an already parsed manifest.
func (m *Manager) LoadFromManifest(man *Manifest) error {
	var errs []error
	for _, spec := range man.Libraries {
		backend, _ := ParseBackend(spec.Backend)
		path := man.resolve(spec.Path)
		_, err := m.Load(path, WithBackend(backend), WithExpect(spec.Expect...))
		if err == nil {
			continue
		}
		if spec.Optional {
			m.log.Info("optional library not loaded", zap.String("path", path), zap.Error(err))
			continue
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
