package lamp

import (
	"fmt"
	"sync"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sim keeps the last frame in memory.
type Sim struct {
	mu     sync.Mutex
	pixels int
	last   []byte
	writes int
	closed bool
}

func NewSim(pixels int) *Sim { return &Sim{pixels: pixels} }

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sim closed")
	}
	if s.pixels > 0 && len(rgb) != s.pixels*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.pixels)
	}
	s.last = append(s.last[:0], rgb...)
	s.writes++
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Last returns a copy of the last frame and the number of writes so far.
func (s *Sim) Last() ([]byte, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...), s.writes
}
