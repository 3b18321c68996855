// cmd/host/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rickcollette/codanative"
)

var (
	libDir   = flag.String("plugins", "./lib", "directory of native extension libraries")
	manifest = flag.String("manifest", "", "YAML manifest listing libraries to load")
	backend  = flag.String("backend", "c", "backend for -plugins libraries: c or go")
	listOnly = flag.Bool("list", false, "just list loaded libraries and binds")
	call     = flag.String("call", "", "bind to invoke; remaining arguments are its values")
	serve    = flag.Bool("serve", false, "dispatch JSON call requests from stdin")
	verbose  = flag.Bool("v", false, "verbose logging")
)

func newLogger() (*zap.Logger, error) {
	if *verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

func main() {
	flag.Parse()

	log, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	codanative.SetLogger(log)

	b, err := codanative.ParseBackend(*backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	mgr := codanative.NewManager(
		codanative.WithLogger(log),
		codanative.WithLoadOptions(codanative.WithBackend(b)),
	)
	defer mgr.Close()

	// a failing library is reported and skipped, the rest stay usable
	if *manifest != "" {
		if err := mgr.LoadManifest(*manifest); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load libraries: %v\n", err)
		}
	} else if err := mgr.LoadAll(*libDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load libraries: %v\n", err)
	}

	switch {
	case *serve:
		if err := codanative.Serve(os.Stdin, os.Stdout, mgr); err != nil {
			fmt.Fprintf(os.Stderr, "serve: %v\n", err)
			os.Exit(1)
		}

	case *call != "":
		args := make([]codanative.Value, 0, flag.NArg())
		for _, raw := range flag.Args() {
			v, err := codanative.ParseValue(raw)
			if err != nil {
				fmt.Fprintf(os.Stderr, "argument %q: %v\n", raw, err)
				os.Exit(1)
			}
			args = append(args, v)
		}
		impact, err := mgr.Call(*call, args...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error calling %s: %v\n", *call, err)
			os.Exit(1)
		}
		fmt.Printf("Result: %v\n", impact)

	default:
		fmt.Println("Loaded libraries:")
		for _, name := range mgr.Libraries() {
			lib, _ := mgr.Library(name)
			fmt.Printf(" – %s (%s)\n", name, lib.Backend())
			for _, bind := range lib.Binds() {
				fmt.Printf("     %s\n", bind.Name)
			}
		}
		if !*listOnly {
			fmt.Println("Use -call <bind> [args...] or -serve to invoke binds.")
		}
	}
}
