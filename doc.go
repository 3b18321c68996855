// Package codanative is the native-interop layer of the Coda runtime.
// It defines the values exchanged between Coda code and natively compiled
// extension functions, the control-flow signal those functions return,
// the NativeBind descriptor naming each function, and a loader that pulls
// the binds out of a shared library by calling its exported bootstrap
// symbol.
//
// Two kinds of extension library are supported. A C-ABI library (the
// default, see include/coda_native.h) exports
//
//	size_t bootstrap(const coda_bind **out);
//
// and is opened through purego, so the host needs no cgo. A Go plugin built
// with -buildmode=plugin exports
//
//	func Bootstrap() []codanative.NativeBind
//
// Basic host usage:
//
//	mgr := codanative.NewManager()
//	if err := mgr.LoadAll("./lib"); err != nil {
//	    log.Print(err) // failing libraries are skipped, the rest stay loaded
//	}
//	impact, err := mgr.Call("add", codanative.Integer(2), codanative.Integer(3))
//	// impact is Return(Integer(5))
//
// Basic Go plugin:
//
//	func Bootstrap() []codanative.NativeBind {
//	    return []codanative.NativeBind{
//	        codanative.NewBind("add", func(args []codanative.Value) *codanative.ControlFlowImpact {
//	            // your code here
//	        }),
//	    }
//	}
//
// Loading is a trust boundary: the loader cannot verify that a library was
// built against a compatible layout of these types beyond the optional ABI
// version export. A mismatch is undefined behaviour, not an error.
package codanative
