package codanative

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Exported symbol names looked up in extension libraries.
const (
	BootstrapSymbol   = "bootstrap"
	ABISymbol         = "coda_abi_version"
	GoBootstrapSymbol = "Bootstrap"
	GoABISymbol       = "ABIVersion"
)

// maxBinds bounds the table a C bootstrap may return.
const maxBinds = 1 << 16

// Backend selects how a library is opened.
type Backend string

const (
	// BackendC opens a C-ABI shared library exporting bootstrap.
	BackendC Backend = "c"
	// BackendGo opens a Go plugin exporting Bootstrap.
	BackendGo Backend = "go"
)

// ParseBackend accepts "c" and "go"; the empty string means BackendC.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "", "c":
		return BackendC, nil
	case "go":
		return BackendGo, nil
	}
	return "", fmt.Errorf("codanative: unknown backend %q", s)
}

type loadConfig struct {
	backend Backend
	expect  []string
}

// LoadOption configures a single Load.
type LoadOption func(*loadConfig)

// WithBackend selects the backend. The default is BackendC.
func WithBackend(b Backend) LoadOption {
	return func(c *loadConfig) { c.backend = b }
}

// WithExpect fails the load unless bootstrap returns binds with every
// given name.
func WithExpect(names ...string) LoadOption {
	return func(c *loadConfig) { c.expect = append(c.expect, names...) }
}

// Library is a loaded extension library and the binds its bootstrap
// returned. The mapping stays alive while the Library or any of its binds
// is reachable, or until Close.
type Library struct {
	name    string
	path    string
	backend Backend
	abi     string
	binds   Binds
	closer  func() error
}

func (l *Library) Name() string       { return l.name }
func (l *Library) Path() string       { return l.path }
func (l *Library) Backend() Backend   { return l.backend }
func (l *Library) ABIVersion() string { return l.abi }

// Binds returns the binds in bootstrap order.
func (l *Library) Binds() Binds {
	out := make(Binds, len(l.binds))
	copy(out, l.binds)
	return out
}

// Close unmaps a C-ABI library once in-flight calls finish. Calling one of
// its binds afterwards panics with ErrLibraryClosed. Go plugins cannot be
// unloaded, so Close is a no-op for them.
func (l *Library) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}

// Load opens the shared library at path, resolves its bootstrap symbol,
// calls it and returns the binds it produced. It is synchronous and never
// retries.
//
// Load trusts the library: nothing but the optional ABI version export
// checks that it was built against this package's layout, and a library
// whose bootstrap does not match the expected signature has undefined
// behaviour that cannot be reported as an error.
func Load(path string, opts ...LoadOption) (*Library, error) {
	cfg := loadConfig{backend: BackendC}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		lib *Library
		err error
	)
	switch cfg.backend {
	case BackendC:
		lib, err = loadC(path)
	case BackendGo:
		lib, err = loadGo(path)
	default:
		err = simpleError(path, "", fmt.Sprintf("unknown backend %q", cfg.backend))
	}
	if err != nil {
		Logger().Debug("library load failed",
			zap.String("path", path),
			zap.String("backend", string(cfg.backend)),
			zap.Error(err))
		return nil, err
	}

	if missing := missingBinds(lib.binds, cfg.expect); len(missing) > 0 {
		_ = lib.Close()
		return nil, simpleError(path, "", "missing expected binds: "+strings.Join(missing, ", "))
	}

	Logger().Debug("library loaded",
		zap.String("path", path),
		zap.String("library", lib.name),
		zap.String("backend", string(lib.backend)),
		zap.Strings("binds", lib.binds.Names()))
	return lib, nil
}

// LibraryName derives a library's name from its file name:
// "/usr/lib/libmath.so.1" becomes "math".
func LibraryName(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	if trimmed := strings.TrimPrefix(name, "lib"); trimmed != "" {
		name = trimmed
	}
	return name
}

func validateBinds(path string, binds Binds) *LoadError {
	for i, b := range binds {
		if b.Name == "" {
			return simpleError(path, "", fmt.Sprintf("bind %d has an empty name", i))
		}
		if b.Handler == nil {
			return simpleError(path, "", fmt.Sprintf("bind %q has no handler", b.Name))
		}
	}
	return nil
}

func missingBinds(binds Binds, expect []string) []string {
	var missing []string
	for _, name := range expect {
		if _, ok := binds.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
