//go:build (darwin || freebsd || linux) && (amd64 || arm64)

package codanative

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// cValue mirrors coda_value in include/coda_native.h. The payload union is
// read as two little-endian words.
type cValue struct {
	kind uint32
	_    uint32
	a    uint64
	b    uint64
}

// cBind mirrors coda_bind.
type cBind struct {
	name    *byte
	handler uintptr
}

// Impact codes returned by a C handler.
const (
	cImpactNone int32 = iota
	cImpactReturn
	cImpactBreak
	cImpactContinue
)

// dlState owns the dlopen handle. It must not reference dlHandle, which
// carries its cleanup.
type dlState struct {
	mu     sync.RWMutex
	addr   uintptr
	closed bool
}

func (s *dlState) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return purego.Dlclose(s.addr)
}

// dlHandle is referenced by every bind resolved from the library. When the
// last one becomes unreachable the library is unmapped.
type dlHandle struct {
	state *dlState
}

func loadC(path string) (*Library, error) {
	addr, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, dynamicError(path, "", err)
	}
	state := &dlState{addr: addr}
	fail := func(err *LoadError) (*Library, error) {
		_ = state.release()
		return nil, err
	}

	bootAddr, err := purego.Dlsym(addr, BootstrapSymbol)
	if err != nil {
		return fail(dynamicError(path, BootstrapSymbol, err))
	}

	var abi string
	if verAddr, err := purego.Dlsym(addr, ABISymbol); err == nil {
		var version func() string
		purego.RegisterFunc(&version, verAddr)
		abi = version()
	}
	if err := checkABI(ABIVersion, abi); err != nil {
		return fail(simpleError(path, ABISymbol, err.Error()))
	}

	var bootstrap func(out **cBind) uintptr
	purego.RegisterFunc(&bootstrap, bootAddr)

	var table *cBind
	n := bootstrap(&table)
	switch {
	case n > maxBinds:
		return fail(simpleError(path, BootstrapSymbol, fmt.Sprintf("returned %d binds", n)))
	case n > 0 && table == nil:
		return fail(simpleError(path, BootstrapSymbol, fmt.Sprintf("returned %d binds and a null table", n)))
	}

	h := &dlHandle{state: state}
	binds := make(Binds, 0, n)
	if n > 0 {
		for i, e := range unsafe.Slice(table, n) {
			if e.name == nil {
				return fail(simpleError(path, BootstrapSymbol, fmt.Sprintf("bind %d has a null name", i)))
			}
			name := goString(e.name)
			if e.handler == 0 {
				return fail(simpleError(path, BootstrapSymbol, fmt.Sprintf("bind %q has a null handler", name)))
			}
			binds = append(binds, newNativeAddrBind(name, e.handler, h.handler(name, e.handler)))
		}
	}
	if err := validateBinds(path, binds); err != nil {
		return fail(err)
	}

	runtime.AddCleanup(h, func(s *dlState) { _ = s.release() }, state)

	return &Library{
		name:    LibraryName(path),
		path:    path,
		backend: BackendC,
		abi:     abi,
		binds:   binds,
		closer:  state.release,
	}, nil
}

func (h *dlHandle) handler(name string, addr uintptr) Handler {
	var call func(args *cValue, nargs uintptr, ret *cValue) int32
	purego.RegisterFunc(&call, addr)

	return func(args []Value) *ControlFlowImpact {
		h.state.mu.RLock()
		defer h.state.mu.RUnlock()
		if h.state.closed {
			panic(fmt.Errorf("%w: %s", ErrLibraryClosed, name))
		}

		var pinner runtime.Pinner
		defer pinner.Unpin()

		cargs := make([]cValue, len(args))
		for i, a := range args {
			cargs[i] = toCValue(a, &pinner)
		}
		var argp *cValue
		if len(cargs) > 0 {
			argp = &cargs[0]
			pinner.Pin(argp)
		}

		var ret cValue
		code := call(argp, uintptr(len(cargs)), &ret)
		runtime.KeepAlive(cargs)

		impact, err := fromCImpact(code, ret)
		if err != nil {
			panic(fmt.Errorf("codanative: %s: %w", name, err))
		}
		return impact
	}
}

func toCValue(v Value, pinner *runtime.Pinner) cValue {
	c := cValue{kind: uint32(v.kind)}
	switch v.kind {
	case KindLong:
		c.a = v.bits
		c.b = uint64(v.hi)
	case KindString:
		if len(v.str) > 0 {
			p := unsafe.StringData(v.str)
			pinner.Pin(p)
			c.a = uint64(uintptr(unsafe.Pointer(p)))
			c.b = uint64(len(v.str))
		}
	default:
		c.a = v.bits
	}
	return c
}

func fromCValue(c cValue) (Value, error) {
	switch Kind(c.kind) {
	case KindCharacter:
		return Char(rune(uint32(c.a))), nil
	case KindLong:
		return Long(Int128{Hi: int64(c.b), Lo: c.a}), nil
	case KindInteger:
		return Integer(int32(uint32(c.a))), nil
	case KindDouble:
		return Value{kind: KindDouble, bits: c.a}, nil
	case KindByte:
		return Byte(uint8(c.a)), nil
	case KindBoolean:
		return Boolean(uint8(c.a) != 0), nil
	case KindString:
		if c.b == 0 {
			return String(""), nil
		}
		if c.a == 0 {
			return Value{}, fmt.Errorf("null string with length %d", c.b)
		}
		// the payload word holds a C-owned char pointer
		p := *(**byte)(unsafe.Pointer(&c.a))
		return String(string(unsafe.Slice(p, c.b))), nil
	}
	return Value{}, fmt.Errorf("unknown value kind %d", c.kind)
}

func fromCImpact(code int32, ret cValue) (*ControlFlowImpact, error) {
	switch code {
	case cImpactNone:
		return nil, nil
	case cImpactReturn:
		v, err := fromCValue(ret)
		if err != nil {
			return nil, err
		}
		return Return(v), nil
	case cImpactBreak:
		return Break(), nil
	case cImpactContinue:
		return Continue(), nil
	}
	return nil, fmt.Errorf("unknown impact code %d", code)
}

func goString(p *byte) string {
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
