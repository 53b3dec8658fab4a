package gosupport

import (
	"errors"
	"testing"
	"unsafe"
)

// store stands in for a native library: handles are keys into a table of
// flat buffers with their shapes.
type store struct {
	arrays map[unsafe.Pointer]*fakeArray
	freed  map[unsafe.Pointer]int
}

type fakeArray struct {
	data  []float32
	shape []int64
}

func newStore() *store {
	return &store{arrays: map[unsafe.Pointer]*fakeArray{}, freed: map[unsafe.Pointer]int{}}
}

func (s *store) new(data unsafe.Pointer, shape []int64) unsafe.Pointer {
	n, _ := numel(shape)
	a := &fakeArray{data: make([]float32, n), shape: append([]int64(nil), shape...)}
	if n > 0 {
		copy(a.data, unsafe.Slice((*float32)(data), n))
	}
	h := unsafe.Pointer(a)
	s.arrays[h] = a
	return h
}

func (s *store) values(h unsafe.Pointer, out unsafe.Pointer) int {
	a, ok := s.arrays[h]
	if !ok {
		return 1
	}
	copy(unsafe.Slice((*float32)(out), len(a.data)), a.data)
	return 0
}

func (s *store) free(h unsafe.Pointer) int {
	s.freed[h]++
	delete(s.arrays, h)
	return 0
}

// array mirrors what a generated wrapper does with the support code.
type array struct {
	own   *owner
	shape []int64
}

func (s *store) newArray(data []float32, shape ...int64) (*array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	own, err := newOwner("free", s.new(dataPtr(data), shape), s.free)
	if err != nil {
		return nil, err
	}
	return &array{own: own, shape: shape}, nil
}

func (a *array) Release() error {
	if a == nil {
		return nil
	}
	return a.own.release()
}

func (s *store) read(a *array) ([]float32, error) {
	h, err := a.own.get()
	if err != nil {
		return nil, err
	}
	n, _ := numel(a.shape)
	out := make([]float32, n)
	if rc := s.values(h, dataPtr(out)); rc != 0 {
		return nil, &CodeError{Op: "values", Code: rc}
	}
	return out, nil
}

func TestShapeRoundTrip(t *testing.T) {
	s := newStore()
	in := []float32{1, 2, 3, 4, 5, 6}
	a, err := s.newArray(in, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	out, err := s.read(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("read %d elements, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("element %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestShapeMismatch(t *testing.T) {
	s := newStore()
	_, err := s.newArray([]float32{1, 2, 3, 4, 5}, 2, 3)
	var se *ShapeError
	if !errors.As(err, &se) || !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want a shape mismatch", err)
	}
	if se.Len != 5 || len(se.Shape) != 2 {
		t.Fatalf("shape error = %+v", se)
	}
	if len(s.arrays) != 0 {
		t.Fatalf("a native array was created for a mismatched buffer")
	}
}

func TestNumel(t *testing.T) {
	tests := []struct {
		shape []int64
		n     int
		ok    bool
	}{
		{nil, 1, true},
		{[]int64{0, 7}, 0, true},
		{[]int64{2, 3, 4}, 24, true},
		{[]int64{2, -1}, 0, false},
		{[]int64{1 << 40, 1 << 40}, 0, false},
	}
	for _, tt := range tests {
		n, ok := numel(tt.shape)
		if n != tt.n || ok != tt.ok {
			t.Errorf("numel(%v) = %d, %v; want %d, %v", tt.shape, n, ok, tt.n, tt.ok)
		}
	}
}

func TestReleaseOnce(t *testing.T) {
	s := newStore()
	a, err := s.newArray([]float32{1, 2}, 2)
	if err != nil {
		t.Fatal(err)
	}
	h, _ := a.own.get()
	for i := 0; i < 3; i++ {
		if err := a.Release(); err != nil {
			t.Fatalf("release %d: %v", i, err)
		}
	}
	if s.freed[h] != 1 {
		t.Fatalf("handle freed %d times", s.freed[h])
	}
	if _, err := s.read(a); !errors.Is(err, ErrReleased) {
		t.Fatalf("read after release = %v, want ErrReleased", err)
	}
	if !a.own.released() {
		t.Fatalf("owner not marked released")
	}
}

func TestNullHandle(t *testing.T) {
	if _, err := newOwner("free", nil, func(unsafe.Pointer) int { return 0 }); !errors.Is(err, ErrNullHandle) {
		t.Fatalf("err = %v, want ErrNullHandle", err)
	}
}

func TestReleaseFailure(t *testing.T) {
	x := 0
	o, err := newOwner("futhark_free_f32_1d", unsafe.Pointer(&x), func(unsafe.Pointer) int { return 3 })
	if err != nil {
		t.Fatal(err)
	}
	var ce *CodeError
	if err := o.release(); !errors.As(err, &ce) || ce.Code != 3 || ce.Op != "futhark_free_f32_1d" {
		t.Fatalf("release = %v", err)
	}
	if err := o.release(); err != nil {
		t.Fatalf("second release = %v", err)
	}
}

func TestReleaseAll(t *testing.T) {
	s := newStore()
	a, _ := s.newArray([]float32{1}, 1)
	b, _ := s.newArray([]float32{2}, 1)
	var missing *array
	if err := releaseAll(a, nil, missing, b); err != nil {
		t.Fatal(err)
	}
	if len(s.arrays) != 0 {
		t.Fatalf("%d arrays left", len(s.arrays))
	}
}

func TestCodeErrorMessage(t *testing.T) {
	err := &CodeError{Op: "futhark_entry_main", Code: 2, Message: "out of memory"}
	if got, want := err.Error(), "futhark_entry_main: status 2: out of memory"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
