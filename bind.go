package codanative

import (
	"encoding/binary"
	"hash/maphash"
	"reflect"
	"slices"
)

// Handler is the signature of every native function. A nil result means
// the call completed without affecting the caller's control flow.
type Handler func(args []Value) *ControlFlowImpact

// NativeBind pairs a name with the native function implementing it.
// Binds are created once when a library is loaded and never mutated.
type NativeBind struct {
	// Name is the identifier Coda code dispatches on.
	Name string
	// Handler performs the call.
	Handler Handler

	// fn identifies the underlying function. Zero means "derive from Handler".
	fn uintptr
}

// NewBind returns a bind whose identity is the code pointer of h.
func NewBind(name string, h Handler) NativeBind {
	return NativeBind{Name: name, Handler: h, fn: funcPointer(h)}
}

func newNativeAddrBind(name string, addr uintptr, h Handler) NativeBind {
	return NativeBind{Name: name, Handler: h, fn: addr}
}

func funcPointer(h Handler) uintptr {
	if h == nil {
		return 0
	}
	return reflect.ValueOf(h).Pointer()
}

// BindKey is the comparable identity of a NativeBind.
type BindKey struct {
	Name string
	Func uintptr
}

// FuncID identifies the underlying function: the native address for binds
// resolved from a C library, the Go code pointer otherwise.
func (b NativeBind) FuncID() uintptr {
	if b.fn != 0 {
		return b.fn
	}
	return funcPointer(b.Handler)
}

func (b NativeBind) Key() BindKey { return BindKey{Name: b.Name, Func: b.FuncID()} }

// Equal reports whether both binds have the same name and function.
func (b NativeBind) Equal(o NativeBind) bool { return b.Key() == o.Key() }

var bindSeed = maphash.MakeSeed()

// Hash is consistent with Equal for the lifetime of the process.
func (b NativeBind) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(bindSeed)
	h.WriteString(b.Name)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(b.FuncID()))
	h.Write(buf[:])
	return h.Sum64()
}

// Invoke calls the handler.
func (b NativeBind) Invoke(args ...Value) *ControlFlowImpact {
	return b.Handler(args)
}

func (b NativeBind) String() string { return b.Name }

// Binds is an ordered collection of binds as returned by a bootstrap call.
type Binds []NativeBind

// Names returns the bind names in order.
func (bs Binds) Names() []string {
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.Name
	}
	return names
}

// Lookup returns the first bind called name.
func (bs Binds) Lookup(name string) (NativeBind, bool) {
	for _, b := range bs {
		if b.Name == name {
			return b, true
		}
	}
	return NativeBind{}, false
}

// Dedupe drops binds equal to an earlier one, keeping order.
func (bs Binds) Dedupe() Binds {
	seen := make(map[BindKey]struct{}, len(bs))
	out := make(Binds, 0, len(bs))
	for _, b := range bs {
		k := b.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, b)
	}
	return out
}

// Duplicates returns the names bound to more than one distinct function,
// sorted.
func (bs Binds) Duplicates() []string {
	byName := make(map[string]uintptr, len(bs))
	var dups []string
	for _, b := range bs {
		id := b.FuncID()
		prev, ok := byName[b.Name]
		if !ok {
			byName[b.Name] = id
			continue
		}
		if prev != id && !slices.Contains(dups, b.Name) {
			dups = append(dups, b.Name)
		}
	}
	slices.Sort(dups)
	return dups
}
