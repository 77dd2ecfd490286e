package refnum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Next(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	g := &generator{
		now:  func() time.Time { return fixed },
		rand: func(n int) int { return 7 },
	}

	got := g.Next("REC")
	assert.Equal(t, "REC-1700000000123-007", got)
}

func TestGenerator_Next_Prefixes(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &generator{
		now:  func() time.Time { return fixed },
		rand: func(n int) int { return 999 },
	}

	tests := []struct {
		prefix string
		want   string
	}{
		{"REC", "REC-1700000000000-999"},
		{"DO", "DO-1700000000000-999"},
		{"TRF", "TRF-1700000000000-999"},
		{"ADJ", "ADJ-1700000000000-999"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Next(tt.prefix))
		})
	}
}

func TestGenerator_SuffixRange(t *testing.T) {
	g := New()

	for i := 0; i < 100; i++ {
		ref := g.Next("TRF")
		require.Regexp(t, `^TRF-\d{13}-\d{3}$`, ref)
	}
}

func TestMockGenerator_Sequential(t *testing.T) {
	m := NewMock()

	assert.Equal(t, "REC-1", m.Next("REC"))
	assert.Equal(t, "REC-2", m.Next("REC"))
	assert.Equal(t, "DO-3", m.Next("DO"))
}
