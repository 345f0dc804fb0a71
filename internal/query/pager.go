package query

import (
	"context"
	"sync"
)

// PageFunc loads one page of a listing.
type PageFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Pager drives one screen's infinite scroll. Reset starts a new generation;
// loads issued for an older generation finish but their rows are dropped.
// An empty page marks the listing as exhausted.
type Pager[T any] struct {
	load  PageFunc[T]
	limit int

	mu         sync.Mutex
	generation uint64
	offset     int
	items      []T
	done       bool
	cancel     context.CancelFunc
}

func NewPager[T any](load PageFunc[T], limit int) *Pager[T] {
	return &Pager[T]{load: load, limit: limit}
}

// Reset discards loaded rows, cancels any load in flight and returns the
// new generation.
func (p *Pager[T]) Reset() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.offset = 0
	p.items = nil
	p.done = false
	return p.generation
}

// Generation returns the current generation token.
func (p *Pager[T]) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Next loads the page after the last one accepted. It returns the rows
// appended and false when the result belonged to a superseded generation
// or the listing was already exhausted.
func (p *Pager[T]) Next(ctx context.Context) ([]T, bool, error) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return nil, false, nil
	}
	gen := p.generation
	offset := p.offset
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	rows, err := p.load(ctx, offset, p.limit)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || offset != p.offset {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		p.done = true
		return nil, false, nil
	}
	p.items = append(p.items, rows...)
	p.offset += len(rows)
	return rows, true, nil
}

// Items returns every row accepted in the current generation.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pager[T]) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
