package codanative

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Manager loads extension libraries and dispatches calls to their binds by
// name. Bind names are global across libraries.
type Manager struct {
	mu       sync.Mutex
	log      *zap.Logger
	loadOpts []LoadOption
	libs     map[string]*Library
	binds    map[string]entry
}

type entry struct {
	bind    NativeBind
	library string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger. The default is Logger().
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// WithLoadOptions applies opts to every library the manager loads.
func WithLoadOptions(opts ...LoadOption) ManagerOption {
	return func(m *Manager) { m.loadOpts = append(m.loadOpts, opts...) }
}

// NewManager returns an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		libs:  make(map[string]*Library),
		binds: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = Logger()
	}
	return m
}

// shared library extensions we accept per-OS
var libExts = map[string][]string{
	"windows": {".dll"},
	"darwin":  {".dylib", ".so"},
	"linux":   {".so"},
	"freebsd": {".so"},
}

func isLibraryFile(name string) bool {
	exts, ok := libExts[runtime.GOOS]
	if !ok {
		exts = []string{".so"}
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) || strings.Contains(name, ext+".") {
			return true
		}
	}
	return false
}

// LoadAll scans one or more directories for shared libraries and loads
// each of them. A library that fails to load is logged and skipped; the
// others stay loaded and the failures are returned joined.
func (m *Manager) LoadAll(dirs ...string) error {
	if len(dirs) == 0 {
		dirs = []string{"./lib"}
	}
	var errs []error
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				m.log.Warn("skipping library directory", zap.String("dir", dir), zap.Error(err))
				errs = append(errs, err)
			}
			continue
		}
		for _, fi := range entries {
			if fi.IsDir() || !isLibraryFile(fi.Name()) {
				continue
			}
			path := filepath.Join(dir, fi.Name())
			if _, err := m.Load(path); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Load loads the library at path and registers its binds. Options are
// applied after the manager's own load options.
func (m *Manager) Load(path string, opts ...LoadOption) (*Library, error) {
	all := append(slices.Clone(m.loadOpts), opts...)
	lib, err := Load(path, all...)
	if err != nil {
		m.log.Warn("skipping library", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	if err := m.add(lib.Name(), lib, lib.Binds()); err != nil {
		_ = lib.Close()
		m.log.Warn("skipping library", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	m.log.Info("library loaded",
		zap.String("library", lib.Name()),
		zap.String("path", path),
		zap.Int("binds", len(lib.binds)))
	return lib, nil
}

// Register adds in-process binds under the given library name.
func (m *Manager) Register(library string, binds ...NativeBind) error {
	if err := validateBinds("", binds); err != nil {
		return err
	}
	return m.add(library, nil, binds)
}

func (m *Manager) add(name string, lib *Library, binds Binds) error {
	if dups := binds.Duplicates(); len(dups) > 0 {
		return fmt.Errorf("library %q: %w: %s", name, ErrDuplicateBind, strings.Join(dups, ", "))
	}
	binds = binds.Dedupe()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.libs[name]; ok {
		return fmt.Errorf("library %q already loaded", name)
	}
	for _, b := range binds {
		if prev, ok := m.binds[b.Name]; ok && !prev.bind.Equal(b) {
			return fmt.Errorf("library %q: %w: %s already bound by %q", name, ErrDuplicateBind, b.Name, prev.library)
		}
	}
	if lib == nil {
		lib = &Library{name: name, binds: binds}
	}
	m.libs[name] = lib
	for _, b := range binds {
		if _, ok := m.binds[b.Name]; !ok {
			m.binds[b.Name] = entry{bind: b, library: name}
		}
	}
	return nil
}

// Lookup returns the bind registered under name.
func (m *Manager) Lookup(name string) (NativeBind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.binds[name]
	return e.bind, ok
}

// Call invokes the named bind. A handler panic, including a call into a
// closed library, is returned as an error wrapping ErrHandlerPanic.
func (m *Manager) Call(name string, args ...Value) (impact *ControlFlowImpact, err error) {
	b, ok := m.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBindNotFound, name)
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("native handler panicked", zap.String("bind", name), zap.Any("panic", r))
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%w: %s: %w", ErrHandlerPanic, name, e)
			} else {
				err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, name, r)
			}
			impact = nil
		}
	}()
	return b.Invoke(args...), nil
}

// Unload closes the named library and drops its binds.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	lib, ok := m.libs[name]
	if ok {
		m.dropLocked(name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("library %q not loaded", name)
	}
	return lib.Close()
}

func (m *Manager) dropLocked(name string) {
	delete(m.libs, name)
	for bn, e := range m.binds {
		if e.library == name {
			delete(m.binds, bn)
		}
	}
}

// Close unloads every library.
func (m *Manager) Close() error {
	m.mu.Lock()
	libs := m.libs
	m.libs = make(map[string]*Library)
	m.binds = make(map[string]entry)
	m.mu.Unlock()

	var errs []error
	for name, lib := range libs {
		if err := lib.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Libraries returns the loaded library names, sorted.
func (m *Manager) Libraries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.libs))
	for n := range m.libs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Library returns the named library.
func (m *Manager) Library(name string) (*Library, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lib, ok := m.libs[name]
	return lib, ok
}

// Binds returns the registered bind names, sorted.
func (m *Manager) Binds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.binds))
	for n := range m.binds {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
