package md2word

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps converters, each of which may own a browser (~200MB).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("converter pool closed")

// ConverterPool lends out up to size converters for batch conversion. Each
// converter is built by factory on first demand, so each one owns its
// diagram renderer. idle never blocks on send: its capacity equals size and
// at most size converters exist.
type ConverterPool struct {
	size    int
	factory func() (*Converter, error)
	idle    chan *Converter

	mu     sync.Mutex
	all    []*Converter
	slots  int // converters built or being built
	closed bool
}

// NewConverterPool creates a pool of at most n converters (minimum 1). Nothing
// is built until Acquire.
func NewConverterPool(n int, factory func() (*Converter, error)) *ConverterPool {
	n = max(n, MinPoolSize)
	return &ConverterPool{
		size:    n,
		factory: factory,
		idle:    make(chan *Converter, n),
		all:     make([]*Converter, 0, n),
	}
}

// Acquire returns an idle converter, builds a new one while under capacity,
// or blocks until one is released.
func (p *ConverterPool) Acquire() (*Converter, error) {
	select {
	case c, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return c, nil
	default:
	}

	if p.reserveSlot() {
		c, err := p.factory()
		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.slots--
			return nil, err
		}
		if p.closed {
			return nil, errors.Join(ErrPoolClosed, c.Close())
		}
		p.all = append(p.all, c)
		return c, nil
	}

	c, ok := <-p.idle
	if !ok {
		return nil, ErrPoolClosed
	}
	return c, nil
}

func (p *ConverterPool) reserveSlot() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.slots >= p.size {
		return false
	}
	p.slots++
	return true
}

// Release hands c back. After Close it is a no-op.
func (p *ConverterPool) Release(c *Converter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.idle <- c
	}
}

// Close closes every converter the pool built and joins their errors.
// Blocked and later Acquire calls get ErrPoolClosed.
func (p *ConverterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	built := p.all
	p.mu.Unlock()

	var errs []error
	for _, c := range built {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return min(workers, MaxPoolSize)
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return min(max(n, MinPoolSize), MaxPoolSize)
}
