// Package refnum issues human-readable reference numbers for documents.
package refnum

import (
	"fmt"
	"math/rand"
	"time"
)

// Generator issues reference numbers for a document prefix.
type Generator interface {
	// Next returns a new reference number of the form
	// PREFIX-<unix-millis>-<3-digit-suffix>.
	Next(prefix string) string
}

// generator is the default timestamp-based implementation.
// Uniqueness is not guaranteed by construction; the documents table
// carries a unique constraint on reference_number and callers retry
// on duplicate.
type generator struct {
	now  func() time.Time
	rand func(n int) int
}

// New returns a Generator backed by the wall clock.
func New() Generator {
	return &generator{
		now:  time.Now,
		rand: rand.Intn,
	}
}

func (g *generator) Next(prefix string) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, g.now().UnixMilli(), g.rand(1000))
}
