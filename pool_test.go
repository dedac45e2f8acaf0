package md2word

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

// Compile-time interface check.
var _ interface {
	Acquire() (*Converter, error)
	Release(*Converter)
	Size() int
	Close() error
} = (*ConverterPool)(nil)

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{
			name:    "explicit takes priority",
			workers: 4,
			want:    4,
		},
		{
			name:    "explicit=1 for sequential",
			workers: 1,
			want:    1,
		},
		{
			name:    "explicit capped at max",
			workers: 32,
			want:    MaxPoolSize,
		},
		{
			name:    "zero uses auto calculation",
			workers: 0,
			want:    min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolvePoolSize(tt.workers)
			if got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

// countingFactory builds converters with fake diagram renderers and counts
// the builds.
type countingFactory struct {
	built    atomic.Int32
	mu       sync.Mutex
	diagrams []*fakeDiagrams
}

func (f *countingFactory) New() (*Converter, error) {
	f.built.Add(1)
	d := &fakeDiagrams{}
	f.mu.Lock()
	f.diagrams = append(f.diagrams, d)
	f.mu.Unlock()
	return NewConverter(WithDiagramRenderer(d))
}

func TestConverterPool_Lazy(t *testing.T) {
	t.Parallel()

	f := &countingFactory{}
	pool := NewConverterPool(2, f.New)
	defer pool.Close()

	if f.built.Load() != 0 {
		t.Fatalf("built %d converters before Acquire, want 0", f.built.Load())
	}

	c1, err := pool.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	pool.Release(c1)
	c2, err := pool.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Error("released converter not reused")
	}
	if f.built.Load() != 1 {
		t.Errorf("built %d converters, want 1", f.built.Load())
	}
	pool.Release(c2)
}

func TestConverterPool_Concurrent(t *testing.T) {
	t.Parallel()

	f := &countingFactory{}
	pool := NewConverterPool(3, f.New)

	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := pool.Acquire()
			if err != nil {
				t.Error(err)
				return
			}
			pool.Release(c)
		}()
	}
	wg.Wait()

	if n := f.built.Load(); n > 3 {
		t.Errorf("built %d converters, want at most 3", n)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	for _, d := range f.diagrams {
		if !d.closed {
			t.Error("converter diagram renderer not closed")
		}
	}
}

func TestConverterPool_FactoryError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	pool := NewConverterPool(1, func() (*Converter, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return NewConverter()
	})
	defer pool.Close()

	if _, err := pool.Acquire(); !errors.Is(err, boom) {
		t.Fatalf("Acquire() error = %v, want boom", err)
	}
	// The failed slot is free again.
	c, err := pool.Acquire()
	if err != nil || c == nil {
		t.Fatalf("Acquire() = %v, %v after a failed build", c, err)
	}
}

func TestConverterPool_CloseIdempotent(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(0, func() (*Converter, error) { return NewConverter() })
	if pool.Size() != 1 {
		t.Errorf("Size() = %d, want 1", pool.Size())
	}
	if err := pool.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if c, err := pool.Acquire(); c != nil || !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() after Close = %v, %v, want ErrPoolClosed", c, err)
	}
	pool.Release(nil) // no-op once closed
}
