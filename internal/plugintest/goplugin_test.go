// Package plugintest loads Go plugins built from this module. It lives
// outside the codanative package so the test binary links the same build
// of codanative the plugins do.
package plugintest

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/rickcollette/codanative"
)

// goTool returns the go command, or skips.
func goTool(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds a plugin")
	}
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "freebsd" {
		t.Skip("Go plugins are not supported on " + runtime.GOOS)
	}
	if p, err := exec.LookPath("go"); err == nil {
		return p
	}
	p := filepath.Join(runtime.GOROOT(), "bin", "go")
	if _, err := os.Stat(p); err != nil {
		t.Skip("go command not found")
	}
	return p
}

// buildPlugin builds the Go plugin in pkg into a temporary directory.
func buildPlugin(t *testing.T, pkg, name string) string {
	t.Helper()
	goCmd := goTool(t)
	out := filepath.Join(t.TempDir(), name)
	cmd := exec.Command(goCmd, "build", "-buildmode=plugin", "-o", out, pkg)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	if msg, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot build Go plugin %s: %v\n%s", pkg, err, msg)
	}
	return out
}

// skipMismatch skips when the test binary and the plugin were built with
// different flags, e.g. under -cover or -race.
func skipMismatch(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(err.Error(), "different version of package") {
		t.Skipf("plugin incompatible with test binary: %v", err)
	}
}

func TestLoad_GoPlugin(t *testing.T) {
	path := buildPlugin(t, "../../examples/math", "libmath.so")

	lib, err := codanative.Load(path, codanative.WithBackend(codanative.BackendGo), codanative.WithExpect("add"))
	skipMismatch(t, err)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer lib.Close()

	if lib.Name() != "math" || lib.Backend() != codanative.BackendGo || lib.ABIVersion() != codanative.ABIVersion {
		t.Errorf("library = %s/%s/%s", lib.Name(), lib.Backend(), lib.ABIVersion())
	}
	binds := lib.Binds()
	if got := binds.Names(); !slices.Equal(got, []string{"add", "mul"}) {
		t.Fatalf("Names() = %v, want [add mul]", got)
	}
	want := codanative.Return(codanative.Integer(5))
	if got := binds[0].Invoke(codanative.Integer(2), codanative.Integer(3)); !got.Equal(want) {
		t.Errorf("add(2, 3) = %v, want %v", got, want)
	}
	if got := binds[1].Invoke(codanative.String("x")); got.Kind() != codanative.ImpactBreak {
		t.Errorf("mul(\"x\") = %v, want break", got)
	}
}

func TestManager_GoPlugins(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"echo", "reverse"} {
		built := buildPlugin(t, "../../examples/"+name, name+".so")
		data, err := os.ReadFile(built)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".so"), data, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	m := codanative.NewManager(codanative.WithLoadOptions(codanative.WithBackend(codanative.BackendGo)))
	defer m.Close()
	err := m.LoadAll(dir)
	skipMismatch(t, err)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if got := m.Binds(); !slices.Equal(got, []string{"echo", "reverse"}) {
		t.Fatalf("Binds() = %v", got)
	}
	impact, err := m.Call("reverse", codanative.String("héllo"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !impact.Equal(codanative.Return(codanative.String("olléh"))) {
		t.Errorf("reverse(héllo) = %v", impact)
	}
	impact, err = m.Call("echo", codanative.Double(2.5))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !impact.Equal(codanative.Return(codanative.Double(2.5))) {
		t.Errorf("echo(2.5) = %v", impact)
	}
}

func TestLoad_GoPluginBadSignature(t *testing.T) {
	path := buildPlugin(t, "../../testdata/goplugin/badsig", "badsig.so")

	_, err := codanative.Load(path, codanative.WithBackend(codanative.BackendGo))
	skipMismatch(t, err)
	if !codanative.IsSimple(err) {
		t.Errorf("error = %v, want simple load error", err)
	}
}
