package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// ComPtr owns exactly one reference to a native COM object. The zero value
// is a null handle: inert, safe to clone and release. Release drops the
// owned reference exactly once; further calls are no-ops, so scope-based
// cleanup is always `defer ptr.Release()`.
type ComPtr[T native.Unknown] struct {
	obj      T
	acquired bool
}

// Own wraps a native object, taking ownership of one existing reference
// (the one returned by the factory call that produced obj). A nil obj
// yields a null handle.
func Own[T native.Unknown](obj T) ComPtr[T] {
	if any(obj) == nil {
		return ComPtr[T]{}
	}
	return ComPtr[T]{obj: obj, acquired: true}
}

// Clone increments the native reference count and returns a second owning
// handle to the same object. Cloning a null handle returns a null handle.
func (p *ComPtr[T]) Clone() ComPtr[T] {
	if !p.acquired {
		return ComPtr[T]{}
	}
	p.obj.AddRef()
	return ComPtr[T]{obj: p.obj, acquired: true}
}

// Get returns the wrapped object for making native calls. The reference
// stays owned by p; callers must not Release it directly.
func (p *ComPtr[T]) Get() T {
	return p.obj
}

func (p *ComPtr[T]) IsNull() bool {
	return !p.acquired
}

// Identity returns the address of the underlying native object, 0 for null
// handles. Two handles alias the same object iff their identities are equal.
func (p *ComPtr[T]) Identity() uintptr {
	if !p.acquired {
		return 0
	}
	return p.obj.Ptr()
}

// Release drops the owned reference. Exactly once: the handle becomes null
// and later calls do nothing.
func (p *ComPtr[T]) Release() {
	if !p.acquired {
		return
	}
	p.obj.Release()
	p.acquired = false
	var zero T
	p.obj = zero
}

// Cast queries the wrapped object for the interface identified by iid and
// returns a new owning handle of type U. The returned handle carries its
// own reference; the source handle is untouched. Objects that do not
// implement the interface yield native.ErrNoInterface.
func Cast[U native.Unknown, T native.Unknown](p *ComPtr[T], iid native.GUID) (ComPtr[U], error) {
	if p.IsNull() {
		return ComPtr[U]{}, &native.CallError{Op: "QueryInterface on null handle", Status: native.StatusNoInterface}
	}
	obj, status := p.obj.QueryInterface(iid)
	if status.Failed() {
		return ComPtr[U]{}, &native.CallError{Op: "QueryInterface", Status: status}
	}
	u, ok := obj.(U)
	if !ok {
		obj.Release()
		return ComPtr[U]{}, fmt.Errorf("QueryInterface returned an unexpected wrapper type: %w", native.ErrNoInterface)
	}
	return Own(u), nil
}
