// Package clock provee el reloj y el generador de identificadores que se inyectan en los casos de uso.
package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock fuente de tiempo.
type Clock interface {
	Now() time.Time
}

// IDGenerator fuente de identificadores únicos.
type IDGenerator interface {
	NewID() string
}

// System reloj real en UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator genera UUID v4.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Fixed reloj detenido; Advance lo mueve. Seguro para uso concurrente.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// Sequence genera UUIDs deterministas con el contador en los últimos 12 dígitos.
type Sequence struct {
	mu sync.Mutex
	n  uint64
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	s.n++
	n := s.n
	s.mu.Unlock()
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}
