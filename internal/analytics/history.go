package analytics

// ring is a fixed-capacity FIFO sequence of float64 samples. Appending past
// capacity overwrites the oldest element; the backing array never reallocates.
type ring struct {
	buf   []float64
	head  int
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) append(v float64) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) len() int {
	return r.count
}

// last returns the most recent sample; ok is false when the ring is empty.
func (r *ring) last() (v float64, ok bool) {
	if r.count == 0 {
		return 0, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}

// values returns an ordered copy (oldest to newest) of up to limit most recent
// samples. limit <= 0 means all.
func (r *ring) values(limit int) []float64 {
	n := r.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]float64, n)
	start := r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.head+start+i)%len(r.buf)]
	}
	return out
}

// symbolHistory holds the bounded rolling sequences tracked per symbol.
// All four rings share one capacity; returns lags prices by one because the
// first window has no prior price.
type symbolHistory struct {
	prices     *ring
	volumes    *ring
	timestamps *ring
	returns    *ring
}

func newSymbolHistory(capacity int) *symbolHistory {
	return &symbolHistory{
		prices:     newRing(capacity),
		volumes:    newRing(capacity),
		timestamps: newRing(capacity),
		returns:    newRing(capacity),
	}
}

// append records one aggregated window. The simple return is computed against
// the previous price and skipped when there is none or it is exactly zero.
func (h *symbolHistory) append(price, volume float64, timestamp int64) {
	prev, hasPrev := h.prices.last()
	h.prices.append(price)
	h.volumes.append(volume)
	h.timestamps.append(float64(timestamp))
	if hasPrev && prev != 0 {
		h.returns.append((price - prev) / prev)
	}
}
