// Package gosupport is the runtime support copied into every generated Go
// binding. It holds no cgo code so that it can be tested on its own; the
// generator embeds everything below the support marker.
package gosupport

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// fbind:support

var (
	// ErrNullHandle is returned when the library hands back a null handle.
	ErrNullHandle = errors.New("native call returned a null handle")
	// ErrReleased is returned when a released handle is used.
	ErrReleased = errors.New("handle used after release")
	// ErrShapeMismatch matches every *ShapeError.
	ErrShapeMismatch = errors.New("buffer length does not match the array shape")
)

// CodeError is a nonzero status returned by a native call.
type CodeError struct {
	Op      string // native function
	Code    int
	Message string // context error text, if the library had one
}

func (e *CodeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Code)
}

// ShapeError reports a buffer whose length does not fit an array shape.
type ShapeError struct {
	Shape []int64
	Len   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape %v does not fit %d elements", e.Shape, e.Len)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShapeMismatch }

// numel is the element count of shape. ok is false for negative
// dimensions and for counts that overflow int.
func numel(shape []int64) (n int, ok bool) {
	n = 1
	for _, d := range shape {
		if d < 0 {
			return 0, false
		}
		if d != 0 && n > int(^uint(0)>>1)/int(d) {
			return 0, false
		}
		n *= int(d)
	}
	return n, true
}

func checkShape(shape []int64, n int) error {
	if want, ok := numel(shape); !ok || want != n {
		return &ShapeError{Shape: append([]int64(nil), shape...), Len: n}
	}
	return nil
}

// dataPtr is the address of the first element of s, nil when s is empty.
func dataPtr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(s))
}

// owner holds one native handle and releases it exactly once, either
// explicitly or from a finalizer.
type owner struct {
	mu   sync.Mutex
	ptr  unsafe.Pointer
	free func(unsafe.Pointer) int
	op   string
}

func newOwner(op string, ptr unsafe.Pointer, free func(unsafe.Pointer) int) (*owner, error) {
	if ptr == nil {
		return nil, ErrNullHandle
	}
	o := &owner{ptr: ptr, free: free, op: op}
	runtime.SetFinalizer(o, func(o *owner) { _ = o.release() })
	return o, nil
}

func (o *owner) get() (unsafe.Pointer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ptr == nil {
		return nil, ErrReleased
	}
	return o.ptr, nil
}

func (o *owner) released() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ptr == nil
}

func (o *owner) release() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ptr == nil {
		return nil
	}
	p := o.ptr
	o.ptr = nil
	runtime.SetFinalizer(o, nil)
	if rc := o.free(p); rc != 0 {
		return &CodeError{Op: o.op, Code: rc}
	}
	return nil
}

// Releaser is implemented by every generated handle wrapper. Release is
// safe on a nil wrapper and on one already released.
type Releaser interface {
	Release() error
}

// releaseAll releases rs, skipping nil interfaces, and joins the errors.
func releaseAll(rs ...Releaser) error {
	var errs []error
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
