package metrics

import "sync"

// RollingMetric implements a circular buffer for calculating rolling averages
type RollingMetric struct {
	mu     sync.Mutex
	data   []float64
	index  int
	filled int
}

// Add a value to an existing data array and return the rolling average.
// Until the buffer is full the average covers only the values seen so far.
func (rm *RollingMetric) Add(value float64) float64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	dataLength := len(rm.data)

	// simple index wrap-around technique
	if rm.index >= dataLength {
		rm.index = 0
	}
	rm.data[rm.index] = value
	rm.index++

	if rm.filled < dataLength {
		rm.filled++
	}

	return rm.average()
}

// Average returns the current rolling average, 0 before the first Add.
func (rm *RollingMetric) Average() float64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return rm.average()
}

func (rm *RollingMetric) average() float64 {
	if rm.filled == 0 {
		return 0
	}

	var total float64
	for i := 0; i < rm.filled; i++ {
		total += rm.data[i]
	}

	return total / float64(rm.filled)
}

// NewRollingMetric creates a new rolling metric with the specified size
func NewRollingMetric(size int) *RollingMetric {
	if size < 1 {
		size = 1
	}
	return &RollingMetric{
		data: make([]float64, size),
	}
}
