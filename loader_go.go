package codanative

import (
	"fmt"
	"plugin"
)

func loadGo(path string) (lib *Library, err error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, dynamicError(path, "", err)
	}

	sym, err := p.Lookup(GoBootstrapSymbol)
	if err != nil {
		return nil, dynamicError(path, GoBootstrapSymbol, err)
	}

	var bootstrap func() []NativeBind
	switch fn := sym.(type) {
	case func() []NativeBind:
		bootstrap = fn
	case func() Binds:
		bootstrap = func() []NativeBind { return fn() }
	case *func() []NativeBind:
		if fn == nil || *fn == nil {
			return nil, simpleError(path, GoBootstrapSymbol, "is a nil function")
		}
		bootstrap = *fn
	default:
		return nil, simpleError(path, GoBootstrapSymbol,
			fmt.Sprintf("has type %T, want func() []codanative.NativeBind", sym))
	}

	var abi string
	if sym, err := p.Lookup(GoABISymbol); err == nil {
		v, ok := sym.(*string)
		if !ok {
			return nil, simpleError(path, GoABISymbol, fmt.Sprintf("has type %T, want string", sym))
		}
		abi = *v
	}
	if err := checkABI(ABIVersion, abi); err != nil {
		return nil, simpleError(path, GoABISymbol, err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			lib = nil
			err = simpleError(path, GoBootstrapSymbol, fmt.Sprintf("panicked: %v", r))
		}
	}()
	binds := Binds(bootstrap())
	if err := validateBinds(path, binds); err != nil {
		return nil, err
	}

	return &Library{
		name:    LibraryName(path),
		path:    path,
		backend: BackendGo,
		abi:     abi,
		binds:   binds,
	}, nil
}
