// Package ring provides a fixed-capacity ring buffer over float64
// samples with O(1) push and eviction. It backs the points-mode plot
// buffers and the filter sliding windows.
package ring

// Ring is a bounded FIFO of float64 values. The zero value is not
// usable; construct with New.
type Ring struct {
	buf   []float64
	head  int
	count int
}

// New returns a ring holding at most capacity samples. Capacity is
// clamped to a minimum of 1.
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of retained samples.
func (r *Ring) Len() int { return r.count }

// Push appends x, evicting the oldest sample when full. It returns the
// evicted value and whether an eviction happened.
func (r *Ring) Push(x float64) (evicted float64, ok bool) {
	if r.count == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = x
		r.head = (r.head + 1) % len(r.buf)
		return evicted, true
	}
	r.buf[(r.head+r.count)%len(r.buf)] = x
	r.count++
	return 0, false
}

// At returns the i-th retained sample, oldest first. It panics when i
// is out of range, matching slice indexing.
func (r *Ring) At(i int) float64 {
	if i < 0 || i >= r.count {
		panic("ring: index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

// Values copies the retained samples into a new slice, oldest first.
func (r *Ring) Values() []float64 {
	out := make([]float64, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Clear drops all samples, keeping capacity.
func (r *Ring) Clear() {
	r.head = 0
	r.count = 0
}
