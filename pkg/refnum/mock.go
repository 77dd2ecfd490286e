package refnum

import (
	"fmt"
	"sync/atomic"
)

// MockGenerator is a deterministic Generator for tests.
type MockGenerator struct {
	counter atomic.Int64
}

// NewMock creates a MockGenerator starting from 1.
func NewMock() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Next(prefix string) string {
	n := m.counter.Add(1)
	return fmt.Sprintf("%s-%d", prefix, n)
}
