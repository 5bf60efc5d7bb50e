package order

import "sync"

// Pool recycles *Order values across submissions, grounded on the
// teacher's sync.Pool-backed FastOrderPool: Get returns a blank order
// ready for a caller to assign an ID and Initialize; Put resets and
// returns it.
type Pool struct {
	pool sync.Pool
}

// NewPool creates an empty order pool.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() interface{} { return &Order{} },
		},
	}
}

// Get retrieves a blank order from the pool, allocating one if empty.
func (p *Pool) Get() *Order {
	return p.pool.Get().(*Order)
}

// Put resets order and returns it to the pool.
func (p *Pool) Put(o *Order) {
	o.Reset()
	p.pool.Put(o)
}
