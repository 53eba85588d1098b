package serialcapture

// History keeps the most recent temperatures for the console sparkline.
type History struct {
	vals []float64
	max  int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 60
	}
	return &History{vals: make([]float64, 0, capacity), max: capacity}
}

// Push appends v, dropping the oldest value when full.
func (h *History) Push(v float64) {
	if len(h.vals) >= h.max {
		copy(h.vals, h.vals[1:])
		h.vals[len(h.vals)-1] = v
		return
	}
	h.vals = append(h.vals, v)
}

// Values returns the stored values, oldest first.
func (h *History) Values() []float64 { return h.vals }

// Range returns min and max of the stored values.
func (h *History) Range() (lo, hi float64) {
	for i, v := range h.vals {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}
